package render

import (
	"html/template"
	"io"

	"github.com/dgnsrekt/kite_console/internal/backend"
	"github.com/dgnsrekt/kite_console/internal/console"
)

type NavItem struct {
	Panel  console.Panel
	Active bool
}

type StatusLine struct {
	Text string
	Tone console.Tone
}

// PageData is everything the console page template reads.
type PageData struct {
	Title       string
	Nav         []NavItem
	Active      console.Panel
	Placeholder string
	Session     console.SessionView
	Status      map[string]*StatusLine
	Labels      map[string]string
	Dashboard   *backend.DashboardSummary
	Catalog     []CatalogRow
	CanLoadMore bool
	Imports     []backend.ImportRecord
	Watchlists  console.WatchlistCollection
	Items       []WatchlistRow
	Users       []UserRow
	UsersLoaded bool
}

func NewPageData(title string, st console.State) PageData {
	d := PageData{
		Title:       title,
		Active:      st.Router.Active,
		Session:     st.Session,
		Status:      make(map[string]*StatusLine, len(st.Surfaces.Status)),
		Labels:      st.Surfaces.Labels,
		Dashboard:   st.Dashboard,
		Catalog:     CatalogRows(st.Search),
		CanLoadMore: st.Search.CanLoadMore(),
		Imports:     st.Imports,
		Watchlists:  st.Watchlists,
		Items:       WatchlistRows(st.Items),
		UsersLoaded: st.Users.Loaded,
	}
	if st.Router.Placeholder {
		d.Placeholder = st.Router.Message
	}
	for _, p := range console.Panels {
		d.Nav = append(d.Nav, NavItem{Panel: p, Active: p == st.Router.Active})
	}
	for name, u := range st.Surfaces.Status {
		d.Status[name] = &StatusLine{Text: u.Text, Tone: u.Tone}
	}
	if st.Users.Loaded {
		d.Users = UserRows(st.Users)
	}
	return d
}

var pageTemplate = template.Must(template.New("page").Parse(pageHTML))

// Page writes the console page for st.
func Page(w io.Writer, title string, st console.State) error {
	return pageTemplate.Execute(w, NewPageData(title, st))
}

const pageHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>{{.Title}}</title>
  <style>
    body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif; margin: 0; background: #0d1117; color: #c9d1d9; }
    nav { display: flex; gap: 4px; padding: 8px 16px; border-bottom: 1px solid #30363d; }
    nav a { color: #8b949e; padding: 4px 10px; text-decoration: none; border-radius: 6px; }
    nav a.active { background: #161b22; color: #58a6ff; }
    main { padding: 16px; }
    table { border-collapse: collapse; width: 100%; font-size: 13px; }
    td, th { border-bottom: 1px solid #21262d; padding: 4px 8px; text-align: left; }
    .status-info { color: #58a6ff; } .status-success { color: #3fb950; } .status-error { color: #f85149; }
    .missing { color: #8b949e; font-style: italic; }
  </style>
</head>
<body>
<nav>
  {{range .Nav}}<a href="/?panel={{.Panel}}" {{if .Active}}class="active"{{end}}>{{.Panel}}</a>{{end}}
  <span style="margin-left:auto">{{if .Session.Authenticated}}{{.Session.Subject}}{{else}}not logged in{{end}}</span>
</nav>
<main data-panel="{{.Active}}">
{{with index .Status "login"}}<p class="status-{{.Tone}}">{{.Text}}</p>{{end}}
{{if .Placeholder}}
  <p class="placeholder">{{.Placeholder}}</p>
{{else if eq .Active "overview"}}
  {{with index .Status "dashboard"}}<p class="status-{{.Tone}}">{{.Text}}</p>{{end}}
  {{with .Dashboard}}
  <table>
    <tr><th>Users</th><td>{{.Totals.Users}}</td></tr>
    <tr><th>Instruments</th><td>{{.Totals.Instruments}}</td></tr>
    <tr><th>Watchlists</th><td>{{.Totals.Watchlists}}</td></tr>
    <tr><th>Watchlist items</th><td>{{.Totals.WatchlistItems}}</td></tr>
    <tr><th>Orders</th><td>{{.Totals.Orders}}</td></tr>
    <tr><th>Positions</th><td>{{.Totals.Positions}}</td></tr>
  </table>
  {{end}}
  <p id="dashboard-kite">{{index .Labels "dashboard.kite"}}</p>
  <p id="dashboard-import">{{index .Labels "dashboard.import"}}</p>
{{else if eq .Active "catalog"}}
  {{with index .Status "catalog"}}<p class="status-{{.Tone}}">{{.Text}}</p>{{end}}
  <p id="catalog-caption">{{index .Labels "catalog.caption"}}</p>
  <table>
    <tr><th>Symbol</th><th>Name</th><th>Exchange</th><th>Segment</th><th>Type</th><th>Expiry</th><th>Strike</th><th>Lot</th><th>Last</th></tr>
    {{range .Catalog}}<tr data-id="{{.ID}}"><td>{{.Symbol}}</td><td>{{.Name}}</td><td>{{.Exchange}}</td><td>{{.Segment}}</td><td>{{.Type}}</td><td>{{.Expiry}}</td><td>{{.Strike}}</td><td>{{.LotSize}}</td><td>{{.LastPrice}}</td></tr>{{end}}
  </table>
  {{if .CanLoadMore}}<p><a href="#" data-action="load-more">Load more</a></p>{{end}}
  {{with index .Status "imports"}}<p class="status-{{.Tone}}">{{.Text}}</p>{{end}}
  <table>
    <tr><th>Source</th><th>Status</th><th>Rows</th><th>OK</th><th>Errors</th><th>Started</th></tr>
    {{range .Imports}}<tr><td>{{.Source}}</td><td>{{.Status}}</td><td>{{.RowsIn}}</td><td>{{.RowsOK}}</td><td>{{.RowsErr}}</td><td>{{.StartedAt}}</td></tr>{{end}}
  </table>
{{else if eq .Active "watchlists"}}
  {{with index .Status "watchlists"}}<p class="status-{{.Tone}}">{{.Text}}</p>{{end}}
  <select name="watchlist">
    {{$sel := .Watchlists.SelectedID}}{{range .Watchlists.Items}}<option value="{{.ID}}" {{if eq .ID $sel}}selected{{end}}>{{.Name}}</option>{{end}}
  </select>
  <p id="watchlist-meta">{{index .Labels "watchlists.meta"}}</p>
  <table>
    <tr><th>Symbol</th><th>Exchange</th><th>Price</th><th>Source</th><th>Quoted</th><th></th></tr>
    {{range .Items}}{{if .Missing}}<tr class="missing" data-item="{{.ItemID}}"><td colspan="5">{{.InstrumentID}} (missing from catalog)</td><td>remove</td></tr>{{else}}<tr data-item="{{.ItemID}}"><td>{{.Symbol}}</td><td>{{.Exchange}}</td><td>{{.Price}}</td><td>{{.QuoteSource}}</td><td>{{.QuoteAt}}</td><td>remove</td></tr>{{end}}{{end}}
  </table>
{{else if eq .Active "credentials"}}
  {{with index .Status "credentials"}}<p class="status-{{.Tone}}">{{.Text}}</p>{{end}}
  <p id="credentials-status">{{index .Labels "credentials.status"}}</p>
{{else if eq .Active "users"}}
  {{with index .Status "users"}}<p class="status-{{.Tone}}">{{.Text}}</p>{{end}}
  <table>
    <tr><th>Name</th><th>Email</th><th>Roles</th><th>Approved</th><th></th></tr>
    {{range .Users}}{{if .Placeholder}}<tr><td colspan="5">{{.Text}}</td></tr>{{else}}<tr data-user="{{.ID}}"><td>{{.Name}}</td><td>{{.Email}}</td><td>{{range .Roles}}<label><input type="checkbox" value="{{.Role}}" {{if .Checked}}checked{{end}} /> {{.Role}}</label> {{end}}</td><td>{{.Approved}}</td><td>{{if .Approved}}revoke{{else}}approve{{end}}</td></tr>{{end}}{{end}}
  </table>
{{end}}
</main>
</body>
</html>`
