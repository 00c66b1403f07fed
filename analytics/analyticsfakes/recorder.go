package analyticsfakes

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-storefront/analytics"
)

var _ analytics.Sink = (*Recorder)(nil)

// Recorder keeps every emitted event in memory.
type Recorder struct {
	events []analytics.Event
	err    error
	lock   sync.Mutex
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Emit(_ context.Context, event analytics.Event) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.events = append(r.events, event)
	return r.err
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []analytics.Event {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]analytics.Event(nil), r.events...)
}

// Fail makes every subsequent Emit record the event and return err.
func (r *Recorder) Fail(err error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.err = err
}
