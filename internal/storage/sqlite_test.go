package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLite_RoundTrip(t *testing.T) {
	kv, err := NewSQLite(filepath.Join(t.TempDir(), "notify.db"))
	require.NoError(t, err)
	defer kv.Close()

	_, ok, err := kv.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Set("notifications", []byte(`[{"id":"a"}]`)))

	value, ok, err := kv.Get("notifications")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[{"id":"a"}]`, string(value))
}

func TestSQLite_LastWriterWins(t *testing.T) {
	kv, err := NewSQLite(filepath.Join(t.TempDir(), "notify.db"))
	require.NoError(t, err)
	defer kv.Close()

	require.NoError(t, kv.Set("k", []byte("first")))
	require.NoError(t, kv.Set("k", []byte("second")))

	value, ok, err := kv.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "second", string(value))
}

func TestSQLite_Delete(t *testing.T) {
	kv, err := NewSQLite(filepath.Join(t.TempDir(), "notify.db"))
	require.NoError(t, err)
	defer kv.Close()

	require.NoError(t, kv.Set("k", []byte("v")))
	require.NoError(t, kv.Delete("k"))

	_, ok, err := kv.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting a missing key is not an error.
	assert.NoError(t, kv.Delete("k"))
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notify.db")

	kv, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, kv.Set("notificationPrefs", []byte(`{"sound":false}`)))
	require.NoError(t, kv.Close())

	reopened, err := NewSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()

	value, ok, err := reopened.Get("notificationPrefs")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"sound":false}`, string(value))
}

func TestMemory_CopiesValues(t *testing.T) {
	kv := NewMemory()

	original := []byte("value")
	require.NoError(t, kv.Set("k", original))
	original[0] = 'X'

	stored, ok, err := kv.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "value", string(stored))
}
