package relay

import (
	"encoding/json"
	"log/slog"

	"github.com/dgnsrekt/kite_console/internal/console"
)

// SurfaceSink forwards console surface updates to the broker. The event feed
// is the update kind: status, label or panel.
func SurfaceSink(b *Broker) console.Sink {
	return console.SinkFunc(func(u console.Update) {
		data, err := json.Marshal(u)
		if err != nil {
			slog.Warn("encode surface update", "error", err)
			return
		}
		b.Publish(Event{Feed: string(u.Kind), Payload: string(data)})
	})
}
