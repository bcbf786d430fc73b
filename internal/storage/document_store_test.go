package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newStore(t *testing.T) (*DocumentStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewDocumentStore(dir, zap.NewNop())
	require.NoError(t, err)
	return store, dir
}

func TestSavePDF(t *testing.T) {
	store, dir := newStore(t)
	content := []byte("%PDF-1.7 kwitansi")

	rel, checksum, err := store.SavePDF(content)
	require.NoError(t, err)

	sum := sha256.Sum256(content)
	wantChecksum := hex.EncodeToString(sum[:])
	assert.Equal(t, wantChecksum, checksum)
	assert.Equal(t, filepath.Join(wantChecksum[:2], wantChecksum[2:]+".pdf"), rel)

	onDisk, err := os.ReadFile(filepath.Join(dir, rel))
	require.NoError(t, err)
	assert.Equal(t, content, onDisk)
}

// Identical content is stored once; the same path and checksum come back.
func TestSavePDFIsIdempotent(t *testing.T) {
	store, dir := newStore(t)
	content := []byte("%PDF-1.7 invoice")

	rel1, sum1, err := store.SavePDF(content)
	require.NoError(t, err)
	rel2, sum2, err := store.SavePDF(content)
	require.NoError(t, err)

	assert.Equal(t, rel1, rel2)
	assert.Equal(t, sum1, sum2)

	// Different content fans out to a different file.
	rel3, sum3, err := store.SavePDF([]byte("%PDF-1.7 other"))
	require.NoError(t, err)
	assert.NotEqual(t, rel1, rel3)
	assert.NotEqual(t, sum1, sum3)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestRead(t *testing.T) {
	store, _ := newStore(t)
	content := []byte("%PDF-1.7 read me")

	rel, _, err := store.SavePDF(content)
	require.NoError(t, err)

	got, err := store.Read(rel)
	require.NoError(t, err)
	assert.Equal(t, content, got)

	_, err = store.Read("ab/missing.pdf")
	assert.Error(t, err)
}

func TestReadRejectsPathEscape(t *testing.T) {
	store, dir := newStore(t)

	outside := filepath.Join(filepath.Dir(dir), "secret.txt")
	require.NoError(t, os.WriteFile(outside, []byte("secret"), 0644))

	_, err := store.Read("../secret.txt")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "escapes")
}
