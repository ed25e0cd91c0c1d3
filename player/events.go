package player

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/peyitv/peyitv/log"
)

// EventCallback is the function signature for mpv event notifications.
// Property changes are passed by property name, other events by event name with the whole message as data.
type EventCallback func(name string, data interface{})

// EventListener keeps one connection open to mpv and forwards its notifications.
type EventListener struct {
	socketPath string
	conn       net.Conn
	callback   EventCallback
	done       chan struct{}
	mu         sync.Mutex
	listening  bool
}

// observed are registered on the listener's own connection; mpv only notifies the client that asked.
var observed = []string{"paused-for-cache"}

// NewEventListener creates a new event listener for the given socket.
func NewEventListener(socketPath string, callback EventCallback) *EventListener {
	return &EventListener{
		socketPath: socketPath,
		callback:   callback,
		done:       make(chan struct{}),
	}
}

// Start connects, registers the property observers and starts the read loop.
func (el *EventListener) Start() error {
	el.mu.Lock()
	defer el.mu.Unlock()

	if el.listening {
		return nil
	}

	conn, err := net.Dial("unix", el.socketPath)
	if err != nil {
		return fmt.Errorf("event listener connect: %w", err)
	}

	for i, name := range observed {
		if err := writeCommand(conn, []interface{}{"observe_property", i + 1, name}); err != nil {
			conn.Close()
			return fmt.Errorf("observe %s: %w", name, err)
		}
	}

	el.conn = conn
	el.listening = true

	go el.readLoop()

	log.Debugf("mpv event listener started on %s", el.socketPath)
	return nil
}

// Stop closes the connection and waits for the read loop to return.
func (el *EventListener) Stop() {
	el.mu.Lock()
	if !el.listening {
		el.mu.Unlock()
		return
	}
	el.listening = false
	el.conn.Close()
	el.mu.Unlock()

	<-el.done
}

func (el *EventListener) readLoop() {
	defer close(el.done)

	reader := bufio.NewReader(el.conn)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				log.Debugf("event listener stopped: %v", err)
			}
			return
		}

		el.processEvent(line)
	}
}

// processEvent parses and dispatches a single mpv event JSON line.
func (el *EventListener) processEvent(line []byte) {
	var event map[string]interface{}
	if err := json.Unmarshal(line, &event); err != nil {
		return
	}

	eventType, ok := event["event"].(string)
	if !ok || el.callback == nil {
		// command replies
		return
	}

	switch eventType {
	case "property-change":
		if name, _ := event["name"].(string); name != "" {
			el.callback(name, event["data"])
		}
	default:
		el.callback(eventType, event)
	}
}

// tracker turns raw mpv notifications into player events.
//
// mpv reports the initial value of an observed property as soon as it is observed, so
// paused-for-cache=false only means something after a true was seen.
type tracker struct {
	waiting bool
	started bool
	starts  int
	last    EventKind
	emitted bool
}

func newTracker() *tracker {
	return &tracker{}
}

func (t *tracker) translate(name string, data interface{}) (Event, bool) {
	switch name {
	case "paused-for-cache":
		paused, _ := data.(bool)
		switch {
		case paused && !t.started:
			t.waiting = true
			return t.dedupe(Event{Kind: EventBuffering})
		case paused:
			t.waiting = true
			return t.dedupe(Event{Kind: EventStalled})
		case t.waiting:
			t.waiting = false
			return t.play()
		}
	case "playback-restart":
		if !t.waiting {
			return t.play()
		}
	case "end-file":
		event, _ := data.(map[string]interface{})
		if reason, _ := event["reason"].(string); reason == "error" {
			detail, _ := event["file_error"].(string)
			if detail == "" {
				detail = "unknown error"
			}
			return Event{Kind: EventError, Err: &DecodeError{Reason: detail}}, true
		}
	}

	return Event{}, false
}

func (t *tracker) play() (Event, bool) {
	ev, ok := t.dedupe(Event{Kind: EventPlaying})
	if ok {
		t.started = true
		t.starts++
	}
	return ev, ok
}

// firstStart reports whether the last Playing event was the first one.
func (t *tracker) firstStart() bool {
	return t.starts == 1 && t.last == EventPlaying
}

func (t *tracker) dedupe(ev Event) (Event, bool) {
	if t.emitted && t.last == ev.Kind {
		return Event{}, false
	}
	t.emitted = true
	t.last = ev.Kind
	return ev, true
}
