package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/roach88/wimi/internal/intent"
	"github.com/roach88/wimi/internal/ir"
	"github.com/roach88/wimi/internal/store"
)

// Engine hosts intents for one journey and journals their transitions.
//
// Thread-safety model:
//   - CreateIntent / Apply / Get: safe from any goroutine
//   - The journaling observer runs on whichever goroutine applied the
//     transition (fan-out is synchronous in the intent core)
type Engine struct {
	store        *store.Store
	clock        *Clock
	journeyToken string
	resolver     intent.CapabilityResolver

	mu         sync.Mutex
	intents    map[string]*hostedIntent
	journalErr error // last journal write failure, nil when healthy
}

type hostedIntent struct {
	intent   *intent.Intent
	specHash string
	cancel   func()
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets a pre-configured clock.
// Used for replay to resume from a specific sequence number.
func WithClock(c *Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithResolver sets the capability resolver shared by all hosted intents.
func WithResolver(r intent.CapabilityResolver) Option {
	return func(e *Engine) {
		e.resolver = r
	}
}

// New creates an Engine backed by the given store.
// The journey token is drawn from the generator once, at construction:
// every transition journaled by this engine shares it.
func New(s *store.Store, tokens JourneyTokenGenerator, opts ...Option) *Engine {
	e := &Engine{
		store:        s,
		clock:        NewClock(),
		journeyToken: tokens.Generate(),
		intents:      make(map[string]*hostedIntent),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// JourneyToken returns the correlation token shared by all records
// this engine writes.
func (e *Engine) JourneyToken() string {
	return e.journeyToken
}

// Clock returns the engine's logical clock.
func (e *Engine) Clock() *Clock {
	return e.clock
}

// CreateIntent registers the definition, constructs the intent with the
// engine's resolver and the spec's protection policy, and attaches the
// journaling observer.
//
// The definition is written to the store before the intent goes live, so
// every transition record references a registered intent.
func (e *Engine) CreateIntent(ctx context.Context, spec ir.IntentSpec) (*intent.Intent, error) {
	specHash, err := ir.SpecHash(spec)
	if err != nil {
		return nil, fmt.Errorf("create intent: %w", err)
	}

	e.mu.Lock()
	if _, exists := e.intents[spec.ID]; exists {
		e.mu.Unlock()
		return nil, newDuplicateIntentError(e.journeyToken, spec.ID)
	}
	e.mu.Unlock()

	if err := e.store.WriteIntent(ctx, spec, specHash); err != nil {
		return nil, fmt.Errorf("create intent: %w", err)
	}

	opts := []intent.Option{
		intent.WithProtection(intent.PolicyByName(spec.Protection)),
	}
	if e.resolver != nil {
		opts = append(opts, intent.WithResolver(e.resolver))
	}

	it, err := intent.New(spec, opts...)
	if err != nil {
		return nil, fmt.Errorf("create intent: %w", err)
	}

	cancel := it.Subscribe(e.journalObserver(spec.ID, specHash))

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.intents[spec.ID]; exists {
		cancel()
		return nil, newDuplicateIntentError(e.journeyToken, spec.ID)
	}
	e.intents[spec.ID] = &hostedIntent{intent: it, specHash: specHash, cancel: cancel}

	slog.Info("intent created",
		"journey", e.journeyToken,
		"intent", spec.ID,
		"spec_hash", specHash)

	return it, nil
}

// journalObserver returns the observer that writes one record per
// transition. Observers cannot fail the transition, so write errors are
// logged and retained for JournalErr.
func (e *Engine) journalObserver(intentID, specHash string) intent.Observer {
	return func(tr intent.Transition) {
		seq := e.clock.Next()

		id, err := ir.TransitionID(e.journeyToken, intentID, seq,
			string(tr.Op), string(tr.From), string(tr.To), tr.Note)
		if err != nil {
			e.recordJournalErr(intentID, err)
			return
		}

		record := ir.Transition{
			ID:            id,
			JourneyToken:  e.journeyToken,
			IntentID:      intentID,
			Seq:           seq,
			Op:            string(tr.Op),
			From:          string(tr.From),
			To:            string(tr.To),
			Note:          tr.Note,
			SpecHash:      specHash,
			EngineVersion: ir.EngineVersion,
		}

		// Observer fan-out carries no caller context; the write is
		// local and bounded by the store's busy timeout.
		if err := e.store.WriteTransition(context.Background(), record); err != nil {
			e.recordJournalErr(intentID, err)
			return
		}

		slog.Debug("transition journaled",
			"journey", e.journeyToken,
			"intent", intentID,
			"seq", seq,
			"op", record.Op,
			"from", record.From,
			"to", record.To)
	}
}

func (e *Engine) recordJournalErr(intentID string, cause error) {
	rerr := newJournalError(e.journeyToken, intentID, cause)
	slog.Error("journal write failed",
		"journey", e.journeyToken,
		"intent", intentID,
		"error", cause)
	e.mu.Lock()
	e.journalErr = rerr
	e.mu.Unlock()
}

// JournalErr returns the most recent journal write failure, or nil.
// Transitions succeed even when journaling fails; callers that need
// durability check this after applying.
func (e *Engine) JournalErr() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.journalErr
}

// Get returns a hosted intent by id.
func (e *Engine) Get(intentID string) (*intent.Intent, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	h, ok := e.intents[intentID]
	if !ok {
		return nil, false
	}
	return h.intent, true
}

// IntentIDs returns the hosted intent ids in alphabetical order.
func (e *Engine) IntentIDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]string, 0, len(e.intents))
	for id := range e.intents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Apply dispatches an operation by name to a hosted intent.
//
// The operation always succeeds once dispatched - transitions are total.
// Errors only report dispatch problems: unknown intent or unknown
// operation name.
func (e *Engine) Apply(intentID, op, note string) error {
	e.mu.Lock()
	h, ok := e.intents[intentID]
	e.mu.Unlock()
	if !ok {
		return newUnknownIntentError(e.journeyToken, intentID)
	}

	if !ir.ValidOp(op) {
		return newUnknownOperationError(e.journeyToken, intentID, op)
	}

	return h.intent.Apply(intent.Op(op), note)
}

// Close detaches the journaling observers from all hosted intents.
// The intents themselves stay usable; their transitions simply stop
// being recorded. Safe to call more than once.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, h := range e.intents {
		h.cancel()
	}
}
