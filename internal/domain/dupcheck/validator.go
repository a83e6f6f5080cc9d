package dupcheck

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Checker asks the backend whether value is already taken for field.
type Checker interface {
	CheckUnique(ctx context.Context, field, value, excludeID string) (bool, error)
}

type Options struct {
	Debounce time.Duration
	Timeout  time.Duration
	Limiter  *rate.Limiter
	OnCheck  func(failed bool)
}

// Validator debounces edits of unique fields and runs one uniqueness check per
// settled value. Results land in the section-local map and the shared map.
type Validator struct {
	checker   Checker
	shared    *ErrorMap
	local     *ErrorMap
	excludeID string
	opts      Options

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	current map[Field]string
	timers  map[Field]*time.Timer
	closed  bool

	// pending counts scheduled and in-flight checks; idle is closed whenever
	// pending is zero and replaced when it leaves zero.
	pending int
	idle    chan struct{}
}

func New(checker Checker, shared *ErrorMap, excludeID string, opts Options) *Validator {
	if shared == nil {
		shared = NewErrorMap()
	}
	ctx, cancel := context.WithCancel(context.Background())
	idle := make(chan struct{})
	close(idle)
	return &Validator{
		checker:   checker,
		shared:    shared,
		local:     NewErrorMap(),
		excludeID: excludeID,
		opts:      opts,
		ctx:       ctx,
		cancel:    cancel,
		current:   map[Field]string{},
		timers:    map[Field]*time.Timer{},
		idle:      idle,
	}
}

// Errors is the section-local view.
func (v *Validator) Errors() map[string]string {
	return v.local.Snapshot()
}

// Observe records an edit and returns the value to store in the draft. Short
// values clear the error at once without a network call; eligible values are
// checked once the input settles.
func (v *Validator) Observe(field Field, raw string) string {
	rule, ok := Rules[field]
	if !ok {
		return raw
	}
	value := Normalize(field, raw)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return value
	}
	v.current[field] = value
	v.stopLocked(field)

	if !rule.Eligible(value) {
		v.setLocked(field, "")
		return value
	}

	v.beginLocked()
	v.timers[field] = time.AfterFunc(v.opts.Debounce, func() {
		v.run(field, value)
	})
	return value
}

// Seed sets the current value without checking, used when a stored record is loaded.
func (v *Validator) Seed(field Field, value string) {
	if _, ok := Rules[field]; !ok {
		return
	}
	v.mu.Lock()
	v.current[field] = Normalize(field, value)
	v.mu.Unlock()
}

func (v *Validator) stopLocked(field Field) {
	if timer, ok := v.timers[field]; ok {
		if timer.Stop() {
			v.endLocked()
		}
		delete(v.timers, field)
	}
}

func (v *Validator) beginLocked() {
	if v.pending == 0 {
		v.idle = make(chan struct{})
	}
	v.pending++
}

func (v *Validator) endLocked() {
	v.pending--
	if v.pending == 0 {
		close(v.idle)
	}
}

func (v *Validator) end() {
	v.mu.Lock()
	v.endLocked()
	v.mu.Unlock()
}

func (v *Validator) idleChan() <-chan struct{} {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.idle
}

func (v *Validator) setLocked(field Field, message string) {
	v.local.Set(string(field), message)
	v.shared.Set(string(field), message)
}

func (v *Validator) run(field Field, value string) {
	defer v.end()

	v.mu.Lock()
	if v.closed || v.current[field] != value {
		v.mu.Unlock()
		return
	}
	delete(v.timers, field)
	v.mu.Unlock()

	if v.opts.Limiter != nil {
		if err := v.opts.Limiter.Wait(v.ctx); err != nil {
			return
		}
	}

	ctx := v.ctx
	if v.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.opts.Timeout)
		defer cancel()
	}
	duplicate, err := v.checker.CheckUnique(ctx, string(field), value, v.excludeID)
	if v.opts.OnCheck != nil {
		v.opts.OnCheck(err != nil)
	}
	if err != nil {
		slog.Warn("duplicate check failed", "field", field, "err", err)
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || v.current[field] != value {
		return
	}
	message := ""
	if duplicate {
		message = Rules[field].DuplicateMessage()
	}
	v.setLocked(field, message)
}

// Flush blocks until no check is scheduled or in flight, or ctx is done.
func (v *Validator) Flush(ctx context.Context) error {
	select {
	case <-v.idleChan():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels pending timers and in-flight checks. Later results are dropped.
func (v *Validator) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	for field := range v.timers {
		v.stopLocked(field)
	}
	idle := v.idle
	v.mu.Unlock()
	v.cancel()
	<-idle
}
