// Package engine hosts intents for one journey and journals their
// transitions durably.
//
// The engine owns the pieces an observable intent needs at runtime:
// a monotonic logical clock for record ordering, a journey token for
// correlation, a shared capability resolver, and a store-backed
// journaling observer attached to every intent it creates.
//
// Journaling is synchronous: the record is written during observer
// fan-out, before the applying call returns. A journal write failure
// never fails the transition - the state change already committed -
// it is logged and surfaced via JournalErr.
package engine
