package utilities

import "sync"

// EventSubmissionRecorded is published after a submission commits. The
// payload is the submission receipt.
const EventSubmissionRecorded = "submission_recorded"

type EventHandler func(interface{})

type EventBus struct {
	handlers map[string][]EventHandler
	mu       sync.RWMutex
	wg       sync.WaitGroup
}

func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[string][]EventHandler),
	}
}

func (eb *EventBus) Subscribe(event string, handler EventHandler) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.handlers[event] = append(eb.handlers[event], handler)
}

func (eb *EventBus) Publish(event string, data interface{}) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	if handlers, found := eb.handlers[event]; found {
		for _, handler := range handlers {
			eb.wg.Add(1)
			go func(h EventHandler) {
				defer eb.wg.Done()
				defer func() {
					if r := recover(); r != nil {
						Error("event handler for %s panicked: %v", event, r)
					}
				}()
				h(data)
			}(handler) // Run handlers asynchronously
		}
	}
}

// Wait blocks until every handler started so far has returned.
func (eb *EventBus) Wait() {
	eb.wg.Wait()
}

// Global instance
var GlobalEventBus = NewEventBus()
