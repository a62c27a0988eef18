package scenario

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamer_Length(t *testing.T) {
	n := NewNamer()
	for _, length := range []int{1, 10, 254, 255} {
		name, err := n.Name(length)
		require.NoError(t, err)
		assert.Len(t, name, length)
		for _, r := range name {
			assert.Contains(t, nameAlphabet, string(r))
		}
	}

	_, err := n.Name(0)
	assert.Error(t, err)
}

func TestNamer_Unique(t *testing.T) {
	n := NewNamer()
	seen := make(map[string]bool)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				name, err := n.Name(6)
				assert.NoError(t, err)
				mu.Lock()
				assert.False(t, seen[name], "duplicate %q", name)
				seen[name] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 800)
}

func TestNamer_RejectsBiasedBytes(t *testing.T) {
	// 252 and above are skipped; 0 maps to 'a', 37 to 'b'.
	n := newNamer(bytes.NewReader([]byte{255, 0, 252, 37}))
	name, err := n.Name(2)
	require.NoError(t, err)
	assert.Equal(t, "ab", name)
}

func TestNamer_Reserve(t *testing.T) {
	// The source always yields "a"; once reserved, nothing is left.
	n := newNamer(zeroReader{})
	n.Reserve("a")

	_, err := n.Name(1)
	assert.ErrorIs(t, err, ErrNamesExhausted)
}

func TestNamer_ReadError(t *testing.T) {
	n := newNamer(errReader{})
	_, err := n.Name(4)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "random bytes")
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) {
	return 0, errors.New("entropy gone")
}
