package scenario

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestScope_ReverseOrder(t *testing.T) {
	s := NewScope()
	var order []string
	for _, k := range []string{"a", "b", "c"} {
		require.True(t, s.Defer(k, func(context.Context) error {
			order = append(order, k)
			return nil
		}))
	}

	require.NoError(t, s.Close(context.Background()))
	assert.Equal(t, []string{"c", "b", "a"}, order)
}

func TestScope_DeduplicatesKeys(t *testing.T) {
	s := NewScope()
	calls := 0
	fn := func(context.Context) error { calls++; return nil }

	assert.True(t, s.Defer("x", fn))
	assert.False(t, s.Defer("x", fn))
	assert.Equal(t, []string{"x"}, s.Keys())

	require.NoError(t, s.Close(context.Background()))
	assert.Equal(t, 1, calls)
}

func TestScope_ContinuesAfterErrors(t *testing.T) {
	s := NewScope()
	ran := 0
	s.Defer("ok", func(context.Context) error { ran++; return nil })
	s.Defer("bad1", func(context.Context) error { ran++; return errors.New("one") })
	s.Defer("bad2", func(context.Context) error { ran++; return errors.New("two") })

	err := s.Close(context.Background())
	require.Error(t, err)
	assert.Equal(t, 3, ran)
	assert.Len(t, multierr.Errors(err), 2)
}

func TestScope_CloseIsIdempotent(t *testing.T) {
	s := NewScope()
	calls := 0
	s.Defer("x", func(context.Context) error { calls++; return nil })

	require.NoError(t, s.Close(context.Background()))
	require.NoError(t, s.Close(context.Background()))
	assert.Equal(t, 1, calls)
	assert.False(t, s.Defer("y", func(context.Context) error { return nil }), "closed scopes accept nothing")
}

func TestScope_Forget(t *testing.T) {
	s := NewScope()
	var ran []string
	for _, k := range []string{"a", "b", "c"} {
		s.Defer(k, func(context.Context) error { ran = append(ran, k); return nil })
	}

	s.Forget("b")
	s.Forget("missing")
	assert.Equal(t, []string{"a", "c"}, s.Keys())
	assert.True(t, s.Defer("b", func(context.Context) error { ran = append(ran, "b2"); return nil }))

	require.NoError(t, s.Close(context.Background()))
	assert.Equal(t, []string{"b2", "c", "a"}, ran)
}
