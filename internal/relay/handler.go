package relay

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const heartbeatInterval = 25 * time.Second

// SSEHandler streams broker events as server-sent events. Clients may pick
// feeds with ?feeds=status,label,<live feed name>.
func SSEHandler(broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming not supported", http.StatusInternalServerError)
			return
		}

		var feeds []string
		if q := r.URL.Query().Get("feeds"); q != "" {
			for _, f := range strings.Split(q, ",") {
				feeds = append(feeds, strings.TrimSpace(f))
			}
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		flusher.Flush()

		id, ch := broker.Subscribe(feeds...)
		defer broker.Unsubscribe(id)
		slog.Debug("sse client connected", "subscriber", id, "feeds", feeds, "clients", broker.ClientCount())

		heartbeat := time.NewTicker(heartbeatInterval)
		defer heartbeat.Stop()

		for {
			select {
			case <-r.Context().Done():
				slog.Debug("sse client disconnected", "subscriber", id)
				return
			case <-heartbeat.C:
				// Comment lines keep idle proxies from closing the stream.
				if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
					return
				}
				flusher.Flush()
			case evt, ok := <-ch:
				if !ok {
					return
				}
				if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Feed, evt.Payload); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}
