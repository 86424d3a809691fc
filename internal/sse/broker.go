// Package sse streams record change events to subscribed clients over
// Server-Sent Events.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Record event kinds accepted by PublishRecordEvent.
const (
	KindCreated = "created"
	KindUpdated = "updated"
)

const clientBuffer = 64

// RecordEvent is the payload of record.created and record.updated.
type RecordEvent struct {
	Hub string `json:"hub"`
	ID  string `json:"id"`
}

type hubEvent struct {
	Hub string `json:"hub"`
}

// state is owned by the broker loop.
type state struct {
	clients    map[chan []byte]struct{}
	lastChange map[string]time.Time
}

// Broker fans record events out to SSE clients. It also emits at most one
// hub.changed event per hub per throttle interval.
type Broker struct {
	throttle time.Duration
	now      func() time.Time

	cmds chan func(*state)
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// NewBroker starts a broker. A non-positive throttle defaults to 2s.
func NewBroker(hubThrottle time.Duration) *Broker {
	if hubThrottle <= 0 {
		hubThrottle = 2 * time.Second
	}
	b := &Broker{
		throttle: hubThrottle,
		now:      time.Now,
		cmds:     make(chan func(*state)),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.done)

	s := &state{
		clients:    make(map[chan []byte]struct{}),
		lastChange: make(map[string]time.Time),
	}
	for {
		select {
		case <-b.stop:
			for ch := range s.clients {
				close(ch)
			}
			return
		case fn := <-b.cmds:
			fn(s)
		}
	}
}

// do runs fn on the broker loop. It reports false once the broker is closed.
func (b *Broker) do(fn func(*state)) bool {
	select {
	case b.cmds <- fn:
		return true
	case <-b.done:
		return false
	case <-b.stop:
		return false
	}
}

// Close stops the loop and closes every subscriber channel.
func (b *Broker) Close() {
	b.once.Do(func() { close(b.stop) })
	<-b.done
}

// Subscribe registers a client. The channel is closed on Unsubscribe or
// Close.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, clientBuffer)
	if !b.do(func(s *state) { s.clients[ch] = struct{}{} }) {
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	b.do(func(s *state) {
		if _, ok := s.clients[ch]; ok {
			delete(s.clients, ch)
			close(ch)
		}
	})
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	n := make(chan int, 1)
	if !b.do(func(s *state) { n <- len(s.clients) }) {
		return 0
	}
	return <-n
}

// PublishRecordEvent sends record.<kind> for a write on hub, followed by
// hub.changed unless one went out for hub within the throttle interval.
// Kinds other than KindCreated and KindUpdated are dropped.
func (b *Broker) PublishRecordEvent(kind, hub, id string) {
	if kind != KindCreated && kind != KindUpdated {
		return
	}
	record, err := frame("record."+kind, RecordEvent{Hub: hub, ID: id})
	if err != nil {
		return
	}
	changed, err := frame("hub.changed", hubEvent{Hub: hub})
	if err != nil {
		return
	}

	b.do(func(s *state) {
		s.broadcast(record)
		now := b.now()
		if now.Sub(s.lastChange[hub]) >= b.throttle {
			s.lastChange[hub] = now
			s.broadcast(changed)
		}
	})
}

// broadcast never blocks; a client with a full buffer misses the frame.
func (s *state) broadcast(msg []byte) {
	for ch := range s.clients {
		select {
		case ch <- msg:
		default:
		}
	}
}

func frame(event string, data any) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event, payload)), nil
}

// ServeHTTP streams events until the client disconnects or the broker
// closes (GET /notion/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
