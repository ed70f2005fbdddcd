package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wimi/internal/ir"
)

// mutableResolver lets tests flip grants between Allowed calls.
type mutableResolver struct {
	grants map[string]bool // "actor/capability" -> held
	calls  int
}

func (r *mutableResolver) Holds(actor, capability string) bool {
	r.calls++
	return r.grants[actor+"/"+capability]
}

func TestAllowed_NoRequirements(t *testing.T) {
	i := newTestIntent(t)
	assert.True(t, i.Allowed(), "no requirements means always allowed")
}

func TestAllowed_RequirementsWithoutResolver(t *testing.T) {
	i, err := New(ir.IntentSpec{ID: "upload", Requires: []string{"files:write"}})
	require.NoError(t, err)
	assert.False(t, i.Allowed(), "requirements with no resolver are denied")
}

func TestAllowed_AllCapabilitiesRequired(t *testing.T) {
	r := &mutableResolver{grants: map[string]bool{
		"alice/files:write": true,
	}}
	i, err := New(
		ir.IntentSpec{ID: "upload", Actor: "alice", Requires: []string{"files:write", "quota:ok"}},
		WithResolver(r),
	)
	require.NoError(t, err)

	assert.False(t, i.Allowed(), "one missing capability denies")

	r.grants["alice/quota:ok"] = true
	assert.True(t, i.Allowed())
}

func TestAllowed_ReEvaluatedFreshEveryCall(t *testing.T) {
	r := &mutableResolver{grants: map[string]bool{
		"alice/files:write": true,
	}}
	i, err := New(
		ir.IntentSpec{ID: "upload", Actor: "alice", Requires: []string{"files:write"}},
		WithResolver(r),
	)
	require.NoError(t, err)

	assert.True(t, i.Allowed())

	// Permissions changed externally; the next call must see it.
	r.grants["alice/files:write"] = false
	assert.False(t, i.Allowed())

	assert.GreaterOrEqual(t, r.calls, 2, "resolver consulted on every call, never cached")
}

func TestAllowed_RuntimeOverride(t *testing.T) {
	forced := false
	active := false
	i, err := New(
		ir.IntentSpec{ID: "upload", Requires: []string{"files:write"}},
		WithOverride(func() (bool, bool) { return forced, active }),
	)
	require.NoError(t, err)

	assert.False(t, i.Allowed(), "inactive override falls through to resolution")

	active, forced = true, true
	assert.True(t, i.Allowed(), "active override wins over missing capabilities")

	forced = false
	assert.False(t, i.Allowed())
}

func TestAllowed_PureFunction(t *testing.T) {
	i := newTestIntent(t)
	i.Start()

	before := i.State()
	_ = i.Allowed()
	_ = i.Message()
	assert.Equal(t, before, i.State(), "allowed and message never mutate state")
}
