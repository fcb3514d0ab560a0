package api

const docsHTML = `<!doctype html>
<html lang="en" data-theme="dark">
<head>
  <meta charset="utf-8" />
  <meta name="referrer" content="same-origin" />
  <meta name="viewport" content="width=device-width, initial-scale=1, shrink-to-fit=no" />
  <title>Kite Admin Console API</title>
  <link href="https://unpkg.com/@stoplight/elements@9.0.0/styles.min.css" rel="stylesheet" />
  <script src="https://unpkg.com/@stoplight/elements@9.0.0/web-components.min.js" crossorigin="anonymous"></script>
</head>
<body style="height: 100vh; margin: 0; position: relative;">
  <a href="/docs/events" style="
    position: fixed;
    top: 12px;
    right: 16px;
    z-index: 9999;
    background: #161b22;
    border: 1px solid #30363d;
    border-radius: 6px;
    color: #58a6ff;
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif;
    font-size: 12px;
    font-weight: 500;
    padding: 5px 12px;
    text-decoration: none;
  ">Event Stream Docs →</a>
  <elements-api
    apiDescriptionUrl="/openapi.json"
    router="hash"
    layout="sidebar"
    tryItCredentialsPolicy="same-origin"
    darkMode
  />
</body>
</html>`

const eventsDocsHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>Event Stream · Kite Admin Console</title>
  <style>
    body { margin: 0; font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; font-size: 14px; line-height: 1.65; background: #0d1117; color: #c9d1d9; }
    main { max-width: 860px; margin: 0 auto; padding: 24px 16px; }
    a { color: #58a6ff; text-decoration: none; }
    code, pre { font-family: ui-monospace, SFMono-Regular, Menlo, monospace; background: #161b22; border-radius: 6px; }
    code { padding: 1px 5px; }
    pre { padding: 12px 16px; overflow-x: auto; border: 1px solid #30363d; }
    table { border-collapse: collapse; width: 100%; }
    td, th { border-bottom: 1px solid #21262d; padding: 6px 8px; text-align: left; vertical-align: top; }
  </style>
</head>
<body>
<main>
  <p><a href="/docs">← REST API</a></p>
  <h1>Event stream</h1>
  <p><code>GET /events</code> is a server-sent event stream. Each event's name is its feed; the data is one JSON document.
  Restrict the stream with <code>?feeds=status,label</code>.</p>
  <table>
    <tr><th>Feed</th><th>Payload</th></tr>
    <tr><td><code>status</code></td><td>A status line changed: <code>{"kind":"status","name":"catalog","text":"Loaded 20 instruments.","tone":"success","at":"…"}</code>. An empty <code>text</code> clears the line.</td></tr>
    <tr><td><code>label</code></td><td>A label changed: <code>credentials.status</code>, <code>dashboard.kite</code>, <code>dashboard.import</code>, <code>catalog.caption</code> or <code>watchlists.meta</code>.</td></tr>
    <tr><td><code>panel</code></td><td>The active panel changed; <code>name</code> is the panel id.</td></tr>
    <tr><td><i>feed name</i></td><td>A live price tick from a feed in <code>CONSOLE_FEEDS_CONFIG</code>, forwarded as received from the backend.</td></tr>
  </table>
  <h2>Example</h2>
  <pre>curl -N 'http://127.0.0.1:8190/events?feeds=status,nifty'

event: status
data: {"kind":"status","name":"watchlists","text":"Instrument added to watchlist.","tone":"success","at":"2026-10-15T09:15:02Z"}

event: nifty
data: {"instrument_token":256265,"last_price":24512.35}</pre>
</main>
</body>
</html>`
