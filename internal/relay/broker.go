package relay

import (
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const subscriberBufSize = 256

var (
	sseClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kite_console_sse_clients",
		Help: "Connected event stream clients.",
	})
	sseDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kite_console_sse_dropped_events_total",
		Help: "Events dropped because a subscriber buffer was full.",
	}, []string{"feed"})
)

// Event is one message streamed to SSE clients. Feed is a surface update
// kind (status, label, panel) or the name of a live price feed.
type Event struct {
	Feed    string
	Payload string
}

type subscriber struct {
	ch    chan Event
	feeds map[string]bool // nil accepts every feed
}

func (s subscriber) wants(feed string) bool {
	return s.feeds == nil || s.feeds[feed]
}

// Broker fans out events to subscribers. Publish never blocks: a subscriber
// whose buffer is full misses the event.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[string]subscriber
}

func NewBroker() *Broker {
	return &Broker{subscribers: make(map[string]subscriber)}
}

// Subscribe registers a client for the given feeds, or every feed when none
// are named.
func (b *Broker) Subscribe(feeds ...string) (string, <-chan Event) {
	sub := subscriber{ch: make(chan Event, subscriberBufSize)}
	for _, f := range feeds {
		if f == "" {
			continue
		}
		if sub.feeds == nil {
			sub.feeds = make(map[string]bool)
		}
		sub.feeds[f] = true
	}

	id := uuid.NewString()
	b.mu.Lock()
	b.subscribers[id] = sub
	b.mu.Unlock()
	sseClients.Inc()
	return id, sub.ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broker) Unsubscribe(id string) {
	b.mu.Lock()
	sub, ok := b.subscribers[id]
	if ok {
		delete(b.subscribers, id)
		close(sub.ch)
	}
	b.mu.Unlock()
	if ok {
		sseClients.Dec()
	}
}

func (b *Broker) Publish(evt Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subscribers {
		if !sub.wants(evt.Feed) {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
			sseDropped.WithLabelValues(evt.Feed).Inc()
		}
	}
}

func (b *Broker) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
