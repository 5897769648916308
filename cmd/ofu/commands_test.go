package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marianozunino/ofu/internal/purge"
	"github.com/marianozunino/ofu/internal/storage"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		configPath = ""
		debug = false
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, storagePath string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "storage_path: " + storagePath + "\n" +
		"purge_log_path: " + filepath.Join(dir, "purge.log") + "\n" +
		"upload_log_path: \"\"\n" +
		"error_log_path: \"\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRetentionCommand(t *testing.T) {
	out, err := execute(t, "retention", "0", "256", "512", "1024")
	require.NoError(t, err)

	assert.Contains(t, out, "0 MiB: 365 days")
	assert.Contains(t, out, "256 MiB: 51.8 days")
	assert.Contains(t, out, "512 MiB: 7 days")
	assert.Contains(t, out, "1024 MiB: exceeds the 512 MiB limit")
}

func TestRetentionCommandRejectsInvalidSize(t *testing.T) {
	_, err := execute(t, "retention", "big")
	assert.Error(t, err)
}

func TestPurgeCommand(t *testing.T) {
	storagePath := filepath.Join(t.TempDir(), "files")
	cfgPath := writeConfig(t, storagePath)

	root, err := storage.Open(storagePath)
	require.NoError(t, err)

	old := filepath.Join(root.Dir(), "old.bin")
	require.NoError(t, os.WriteFile(old, []byte("x"), 0o644))
	modTime := time.Now().Add(-400 * 24 * time.Hour)
	require.NoError(t, os.Chtimes(old, modTime, modTime))

	fresh := filepath.Join(root.Dir(), "fresh.bin")
	require.NoError(t, os.WriteFile(fresh, []byte("x"), 0o644))

	out, err := execute(t, "purge", "--config", cfgPath)
	require.NoError(t, err)

	assert.Contains(t, out, "Deleted \"old.bin\", 0 MiB, 400 days old\n")
	assert.Contains(t, out, "1 of 2 files deleted\n")
	assert.NoFileExists(t, old)
	assert.FileExists(t, fresh)
}

func TestPrintReport(t *testing.T) {
	report := purge.Report{
		Scanned: 3,
		Deleted: []purge.Deletion{
			{Name: "abcd.png", Size: 3 * 1024 * 1024, AgeDays: 40.06},
		},
		Failed: []*purge.FileError{
			{Name: "efgh", Err: errors.New("permission denied")},
		},
	}

	var out, errOut bytes.Buffer
	printReport(&out, &errOut, report)

	assert.Equal(t, "Deleted \"abcd.png\", 3 MiB, 40.1 days old\n1 of 3 files deleted\n", out.String())
	assert.Equal(t, "Failed to delete \"efgh\": permission denied\n", errOut.String())
}
