package pipeline

// EventType identifies a processor event.
type EventType int

const (
	// EventProcessed carries the encoded display bitmap ([]byte).
	EventProcessed EventType = iota
	// EventQueueDepth carries the number of queued commands (int).
	EventQueueDepth
	// EventFailed carries the *CommandError of a failed command.
	EventFailed
	// EventLoaded carries the source of a newly loaded master image (string).
	EventLoaded
)

// EventListener is called when an event occurs. Listeners run on the
// goroutine that raised the event, usually the worker, and must not block.
type EventListener func(data interface{})

// On registers an event listener for the specified event type.
func (p *Processor) On(event EventType, listener EventListener) {
	p.lmu.Lock()
	defer p.lmu.Unlock()
	p.listeners[event] = append(p.listeners[event], listener)
}

// emit triggers all listeners for the specified event type.
func (p *Processor) emit(event EventType, data interface{}) {
	p.lmu.RLock()
	listeners := p.listeners[event]
	p.lmu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}
