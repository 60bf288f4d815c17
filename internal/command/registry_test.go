package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopHandler(ctx context.Context, inv *Invocation) error { return nil }

func desc(name string, surfaces Surface, aliases ...string) *Descriptor {
	return &Descriptor{
		Name:     name,
		Aliases:  aliases,
		Surfaces: surfaces,
		Handler:  noopHandler,
	}
}

func TestRegisterAndResolve(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(desc("hello", SurfaceText|SurfaceSlash, "hi")))

	d, ok := r.Resolve("hello", SurfaceText)
	require.True(t, ok)
	assert.Equal(t, "hello", d.Name)

	// case-insensitive, alias included
	d, ok = r.Resolve("HELLO", SurfaceSlash)
	require.True(t, ok)
	assert.Equal(t, "hello", d.Name)

	d, ok = r.Resolve("Hi", SurfaceText)
	require.True(t, ok)
	assert.Equal(t, "hello", d.Name)
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name string
		d    *Descriptor
	}{
		{"nil descriptor", nil},
		{"empty name", desc("", SurfaceText)},
		{"whitespace name", desc("   ", SurfaceText)},
		{"no handler", &Descriptor{Name: "x", Surfaces: SurfaceText}},
		{"no surfaces", &Descriptor{Name: "x", Handler: noopHandler}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			assert.ErrorIs(t, r.Register(tt.d), ErrInvalidDescriptor)
			assert.Zero(t, r.Len())
		})
	}
}

func TestRegisterDuplicateLeavesFirstIntact(t *testing.T) {
	r := NewRegistry()
	first := desc("ping", SurfaceText)
	require.NoError(t, r.Register(first))

	err := r.Register(desc("Ping", SurfaceSlash))
	require.ErrorIs(t, err, ErrDuplicateName)

	got, ok := r.Resolve("ping", SurfaceText)
	require.True(t, ok)
	assert.Equal(t, first.Surfaces, got.Surfaces)
	assert.Equal(t, 1, r.Len())
}

func TestRegisterDoesNotMutateCallerDescriptor(t *testing.T) {
	r := NewRegistry()
	mine := desc("Greet", SurfaceText, " Hi ")
	require.NoError(t, r.Register(mine))

	// the caller's struct keeps its original spelling
	assert.Equal(t, "Greet", mine.Name)
	assert.Equal(t, []string{" Hi "}, mine.Aliases)

	// and later edits to it never reach the registry
	mine.Description = "edited after registration"
	got, ok := r.Resolve("hi", SurfaceText)
	require.True(t, ok)
	assert.Empty(t, got.Description)

	// a rejected descriptor is equally untouched, so it can be fixed and
	// retried as written
	dup := desc("GREET", SurfaceSlash)
	require.ErrorIs(t, r.Register(dup), ErrDuplicateName)
	assert.Equal(t, "GREET", dup.Name)
	dup.Name = "salute"
	require.NoError(t, r.Register(dup))
}

func TestRegisterAliasConflicts(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(desc("calc", SurfaceText, "calculate")))

	// new name collides with existing alias
	assert.ErrorIs(t, r.Register(desc("calculate", SurfaceText)), ErrDuplicateName)

	// new alias collides with existing name
	assert.ErrorIs(t, r.Register(desc("math", SurfaceText, "calc")), ErrDuplicateName)

	// a failed registration leaves none of its aliases behind
	_, ok := r.Resolve("math", SurfaceText)
	assert.False(t, ok)
	assert.Equal(t, 1, r.Len())
}

func TestResolveSurfaceFilter(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(desc("textonly", SurfaceText)))

	_, ok := r.Resolve("textonly", SurfaceSlash)
	assert.False(t, ok)

	_, ok = r.Resolve("textonly", SurfaceText)
	assert.True(t, ok)
}

func TestResolveIdempotent(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(desc("roll", SurfaceText|SurfaceSlash, "dice")))

	a, okA := r.Resolve("roll", SurfaceSlash)
	b, okB := r.Resolve("roll", SurfaceSlash)
	require.True(t, okA)
	require.True(t, okB)
	assert.Same(t, a, b)
}

func TestResolveUnknownIsNotAnError(t *testing.T) {
	r := NewRegistry()
	d, ok := r.Resolve("missing", SurfaceText)
	assert.False(t, ok)
	assert.Nil(t, d)
}

func TestAllSorted(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, r.Register(desc(name, SurfaceText)))
	}
	all := r.All()
	require.Len(t, all, 3)
	assert.Equal(t, "alpha", all[0].Name)
	assert.Equal(t, "mid", all[1].Name)
	assert.Equal(t, "zeta", all[2].Name)
}
