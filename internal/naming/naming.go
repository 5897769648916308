package naming

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

const (
	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

	// TriesPerLength is the number of consecutive collisions tolerated at one
	// length before names grow by a character.
	TriesPerLength = 3

	maxExtensionLength = 10
)

// ErrNameTaken is returned by a ClaimFunc when the name is already in use.
var ErrNameTaken = errors.New("name taken")

// ClaimFunc atomically takes name, returning ErrNameTaken if it is in use.
type ClaimFunc func(name string) error

// Namer generates random storage names. Names start at a minimum length and
// grow by one character after TriesPerLength consecutive collisions.
type Namer struct {
	minLength int
	rand      io.Reader
}

// New returns a Namer producing names of at least minLength characters.
func New(minLength int) *Namer {
	return NewWithReader(minLength, rand.Reader)
}

// NewWithReader is like New but draws randomness from r.
func NewWithReader(minLength int, r io.Reader) *Namer {
	if minLength < 1 {
		minLength = 1
	}
	return &Namer{minLength: minLength, rand: r}
}

// Acquire generates names until claim succeeds and returns the claimed name
// (with ext appended). Any claim error other than ErrNameTaken aborts.
func (n *Namer) Acquire(ext string, claim ClaimFunc) (string, error) {
	length := n.minLength
	tries := 0

	for {
		base, err := n.random(length)
		if err != nil {
			return "", err
		}
		name := base + ext

		err = claim(name)
		if err == nil {
			return name, nil
		}
		if !errors.Is(err, ErrNameTaken) {
			return "", err
		}

		tries++
		if tries == TriesPerLength {
			tries = 0
			length++
		}
	}
}

// random returns a string of length characters drawn uniformly from
// alphabet. The alphabet has 64 symbols so each byte maps without bias.
func (n *Namer) random(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := io.ReadFull(n.rand, buf); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(buf), nil
}

// Extension derives the stored extension from an original filename. Only the
// final extension is kept, except that a ".tar" directly before it is kept
// too (".tar.gz"). Characters outside [A-Za-z0-9_-] are dropped so the
// stored name is safe in a URL path. The result, including the leading dot,
// is at most 10 characters long. A filename without an extension yields "".
func Extension(filename string) string {
	filename = filepath.Base(strings.ReplaceAll(filename, "\\", "/"))

	raw := strings.TrimPrefix(filepath.Ext(filename), ".")
	ext := strings.Map(urlSafe, raw)
	if ext == "" {
		return ""
	}

	rest := strings.TrimSuffix(filename, "."+raw)
	if strings.TrimPrefix(filepath.Ext(rest), ".") == "tar" {
		ext = "tar." + ext
	}

	ext = "." + ext
	if len(ext) > maxExtensionLength {
		ext = ext[:maxExtensionLength]
	}
	return ext
}

func urlSafe(r rune) rune {
	if r < 0x80 && strings.ContainsRune(alphabet, r) {
		return r
	}
	return -1
}
