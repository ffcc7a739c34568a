package accesslog

// Observer receives the outcome of every Append.
//
// Observers are called synchronously from Append while the engine's write
// lock is held, so they must return quickly and must not call back into the
// engine. Implementations that do real work (network fan-out, etc.) should
// hand the event off to their own goroutine.
type Observer interface {
	// Recorded is called after a record has been appended to the file.
	Recorded(r Record)

	// Failed is called when a record could not be appended.
	Failed(err error)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	OnRecorded func(Record)
	OnFailed   func(error)
}

// Recorded implements Observer.
func (o ObserverFuncs) Recorded(r Record) {
	if o.OnRecorded != nil {
		o.OnRecorded(r)
	}
}

// Failed implements Observer.
func (o ObserverFuncs) Failed(err error) {
	if o.OnFailed != nil {
		o.OnFailed(err)
	}
}
