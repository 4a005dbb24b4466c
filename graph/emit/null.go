package emit

// NullEmitter discards all events. Useful as a default when no
// observability backend is configured.
type NullEmitter struct{}

// Emit implements Emitter by discarding the event.
func (NullEmitter) Emit(Event) {}
