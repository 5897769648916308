package naming

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtension(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"archive.tar.gz", ".tar.gz"},
		{"archive.tar.xz", ".tar.xz"},
		{"file", ""},
		{"file.", ""},
		{"photo.png", ".png"},
		{"file.verylongextension", ".verylonge"},
		{"a.b.tar.gz", ".tar.gz"},
		{"a.tar.b.gz", ".gz"},
		{"backup.tar.zstandard", ".tar.zstan"},
		{"dir/sub/report.pdf", ".pdf"},
		{`C:\Users\me\notes.txt`, ".txt"},
		{"tar.gz", ".gz"},
		{"notes.a#b", ".ab"},
		{"q.x?y=1", ".xy1"},
		{"p.a%41", ".a41"},
		{"weird.#?%", ""},
		{"photo.jpé", ".jp"},
		{"backup.tar.g z", ".tar.gz"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got := Extension(tt.filename)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len(got), 10)
		})
	}
}

func TestAcquireReturnsNameWithExtension(t *testing.T) {
	n := New(4)

	name, err := n.Acquire(".txt", func(string) error { return nil })
	require.NoError(t, err)

	assert.Len(t, name, 8)
	assert.True(t, strings.HasSuffix(name, ".txt"))
	for _, c := range strings.TrimSuffix(name, ".txt") {
		assert.Contains(t, alphabet, string(c))
	}
}

func TestAcquireGrowsAfterRepeatedCollisions(t *testing.T) {
	n := New(4)

	var lengths []int
	name, err := n.Acquire("", func(name string) error {
		lengths = append(lengths, len(name))
		if len(lengths) <= TriesPerLength {
			return ErrNameTaken
		}
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []int{4, 4, 4, 5}, lengths)
	assert.Len(t, name, 5)
}

func TestAcquireKeepsGrowing(t *testing.T) {
	n := New(2)

	var lengths []int
	_, err := n.Acquire(".bin", func(name string) error {
		lengths = append(lengths, len(strings.TrimSuffix(name, ".bin")))
		if len(lengths) <= 2*TriesPerLength+1 {
			return ErrNameTaken
		}
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []int{2, 2, 2, 3, 3, 3, 4, 4}, lengths)
}

func TestAcquireStopsOnClaimError(t *testing.T) {
	n := New(4)
	boom := errors.New("disk on fire")

	calls := 0
	_, err := n.Acquire("", func(string) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestAcquireRandomFailure(t *testing.T) {
	n := NewWithReader(4, bytes.NewReader(nil))

	_, err := n.Acquire("", func(string) error { return nil })
	assert.Error(t, err)
}

func TestMinimumLength(t *testing.T) {
	n := New(0)

	name, err := n.Acquire("", func(string) error { return nil })
	require.NoError(t, err)
	assert.Len(t, name, 1)
}
