package store

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusdesk/campusdesk-notify/internal/storage"
)

func TestPreferenceStore_Defaults(t *testing.T) {
	s := NewPreferenceStore(storage.NewMemory())

	prefs := s.Get()
	assert.True(t, prefs.Sound)
	assert.True(t, prefs.Desktop)
	assert.True(t, prefs.Email)
	assert.True(t, prefs.InApp)
	assert.Equal(t, "immediate", prefs.DigestFrequency)
}

func TestPreferenceStore_ShallowMerge(t *testing.T) {
	s := NewPreferenceStore(storage.NewMemory())

	s.Update(map[string]json.RawMessage{
		"sound":           json.RawMessage("false"),
		"digestFrequency": json.RawMessage(`"daily"`),
	})

	prefs := s.Get()
	assert.False(t, prefs.Sound)
	assert.Equal(t, "daily", prefs.DigestFrequency)
	assert.True(t, prefs.Desktop, "untouched fields keep their values")
	assert.True(t, prefs.InApp)
}

func TestPreferenceStore_UnknownKeysPreserved(t *testing.T) {
	kv := storage.NewMemory()
	s := NewPreferenceStore(kv)

	s.Update(map[string]json.RawMessage{
		"quietHours": json.RawMessage(`{"start":"22:00","end":"07:00"}`),
	})

	// The unknown key survives a persistence round trip.
	reloaded := NewPreferenceStore(kv)
	prefs := reloaded.Get()
	require.Contains(t, prefs.Extra, "quietHours")
	assert.JSONEq(t, `{"start":"22:00","end":"07:00"}`, string(prefs.Extra["quietHours"]))

	// And a later update of a known key does not disturb it.
	reloaded.Update(map[string]json.RawMessage{"email": json.RawMessage("false")})
	prefs = reloaded.Get()
	assert.False(t, prefs.Email)
	assert.Contains(t, prefs.Extra, "quietHours")
}

func TestPreferenceStore_CorruptStateFallsBackToDefaults(t *testing.T) {
	kv := storage.NewMemory()
	require.NoError(t, kv.Set(storage.KeyPreferences, []byte("???")))

	s := NewPreferenceStore(kv)
	assert.True(t, s.Get().Sound)
}

func TestPreferenceStore_GetReturnsCopy(t *testing.T) {
	s := NewPreferenceStore(storage.NewMemory())
	s.Update(map[string]json.RawMessage{"custom": json.RawMessage("1")})

	prefs := s.Get()
	prefs.Extra["custom"] = json.RawMessage("2")

	assert.JSONEq(t, "1", string(s.Get().Extra["custom"]))
}
