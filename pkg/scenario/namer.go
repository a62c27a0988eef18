package scenario

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"sync"
)

const nameAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Largest multiple of len(nameAlphabet) that fits in a byte; bytes at or
// above it are rejected so every character is equally likely.
const nameByteLimit = 256 - 256%len(nameAlphabet)

const maxNameAttempts = 64

// ErrNamesExhausted is returned when no unused name of the requested length
// could be found.
var ErrNamesExhausted = errors.New("no unused folder name available")

// Namer generates random folder names of exact length from lowercase
// letters and digits. It never returns the same name twice, nor a name
// reserved with Reserve.
type Namer struct {
	mu     sync.Mutex
	rand   io.Reader
	issued map[string]struct{}
}

// NewNamer returns a Namer backed by crypto/rand.
func NewNamer() *Namer {
	return newNamer(rand.Reader)
}

func newNamer(r io.Reader) *Namer {
	return &Namer{rand: r, issued: make(map[string]struct{})}
}

// Reserve marks names as taken.
func (n *Namer) Reserve(names ...string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, name := range names {
		n.issued[name] = struct{}{}
	}
}

// Name returns a new name of exactly length characters.
func (n *Namer) Name(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid name length %d", length)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		name, err := n.random(length)
		if err != nil {
			return "", err
		}
		if _, taken := n.issued[name]; !taken {
			n.issued[name] = struct{}{}
			return name, nil
		}
	}
	return "", fmt.Errorf("%w (length %d)", ErrNamesExhausted, length)
}

func (n *Namer) random(length int) (string, error) {
	out := make([]byte, 0, length)
	buf := make([]byte, length)
	for len(out) < length {
		if _, err := io.ReadFull(n.rand, buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= nameByteLimit {
				continue
			}
			out = append(out, nameAlphabet[int(b)%len(nameAlphabet)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}
