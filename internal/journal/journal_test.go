package journal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/marianozunino/ofu/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedSink(pattern string, at time.Time) *Sink {
	s := New(pattern)
	s.now = func() time.Time { return at }
	return s
}

func TestRecord(t *testing.T) {
	at := time.Date(2026, 10, 17, 12, 30, 0, 0, time.UTC)

	record := Record(at, "1.2.3.4", 42, "'file.txt'", "AbCd.txt")
	assert.Equal(t, []string{"2026-10-17T12:30:00Z", "1.2.3.4", "42", "'file.txt'", "AbCd.txt"}, record)
}

func TestAppendWritesDatedFile(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2026, 10, 17, 12, 30, 0, 0, time.UTC)
	s := fixedSink(filepath.Join(dir, "log", "ofu-upload.{date}.log"), at)

	require.NoError(t, s.Append(Record(at, "a", "b")))
	require.NoError(t, s.Append(Record(at, "c")))

	data, err := os.ReadFile(filepath.Join(dir, "log", "ofu-upload.2026-10-17.log"))
	require.NoError(t, err)
	assert.Equal(t, "2026-10-17T12:30:00Z\ta\tb\n2026-10-17T12:30:00Z\tc\n", string(data))
}

func TestAppendBatch(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	s := fixedSink(filepath.Join(dir, "purge.log"), at)

	require.NoError(t, s.Append(Record(at, "one"), Record(at, "two"), Record(at, "three")))

	data, err := os.ReadFile(filepath.Join(dir, "purge.log"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	assert.Len(t, lines, 3)
}

func TestAppendEscapesSeparators(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	s := fixedSink(filepath.Join(dir, "error.log"), at)

	require.NoError(t, s.Append(Record(at, "bad\tname\nwith\rbreaks")))

	data, err := os.ReadFile(filepath.Join(dir, "error.log"))
	require.NoError(t, err)
	assert.Equal(t, "2026-01-02T00:00:00Z\tbad name with breaks\n", string(data))
}

func TestDisabledSink(t *testing.T) {
	var nilSink *Sink
	assert.False(t, nilSink.Enabled())
	assert.NoError(t, nilSink.Append(Record(time.Now(), "x")))

	empty := New("")
	assert.False(t, empty.Enabled())
	assert.NoError(t, empty.Append(Record(time.Now(), "x")))
}

func TestAppendFailsOnUnwritablePath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	s := New(filepath.Join(blocker, "sub", "log.txt"))
	assert.Error(t, s.Append(Record(time.Now(), "x")))
}

func TestFromConfig(t *testing.T) {
	cfg := &config.Config{
		UploadLogPath: "/tmp/u.{date}.log",
		ErrorLogPath:  "",
		PurgeLogPath:  "/tmp/p.log",
	}

	j := FromConfig(cfg)
	assert.True(t, j.Upload.Enabled())
	assert.False(t, j.Error.Enabled())
	assert.True(t, j.Purge.Enabled())
	assert.Equal(t, "/tmp/u.2026-10-17.log", j.Upload.Path(time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)))
}
