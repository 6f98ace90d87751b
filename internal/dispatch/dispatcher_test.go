package dispatch

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusdesk/campusdesk-notify/internal/storage"
	"github.com/campusdesk/campusdesk-notify/internal/store"
	"github.com/campusdesk/campusdesk-notify/logger"
	"github.com/campusdesk/campusdesk-notify/types"
)

func TestMain(m *testing.M) {
	logger.IsTest = true
	m.Run()
}

type recordingBanner struct {
	shown []Banner
	err   error
}

func (r *recordingBanner) Show(b Banner) error {
	r.shown = append(r.shown, b)
	return r.err
}

type panickingBanner struct{}

func (panickingBanner) Show(Banner) error { panic("widget gone") }

type recordingSound struct {
	played []types.Notification
	err    error
}

func (r *recordingSound) Play(n types.Notification) error {
	r.played = append(r.played, n)
	return r.err
}

type fakeDesktop struct {
	available bool
	granted   bool
	notified  [][2]string
}

func (d *fakeDesktop) Available() bool { return d.available }
func (d *fakeDesktop) Granted() bool   { return d.granted }
func (d *fakeDesktop) Request() error  { return nil }
func (d *fakeDesktop) Notify(title, message string) error {
	d.notified = append(d.notified, [2]string{title, message})
	return nil
}

type fixture struct {
	dispatcher *Dispatcher
	store      *store.NotificationStore
	prefs      *store.PreferenceStore
	banner     *recordingBanner
	sound      *recordingSound
	desktop    *fakeDesktop
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	kv := storage.NewMemory()
	f := &fixture{
		store:   store.NewNotificationStore(kv, 0),
		prefs:   store.NewPreferenceStore(kv),
		banner:  &recordingBanner{},
		sound:   &recordingSound{},
		desktop: &fakeDesktop{available: true, granted: true},
	}
	f.dispatcher = NewDispatcher(f.store, f.prefs, Channels{
		Banner:  f.banner,
		Sound:   f.sound,
		Desktop: f.desktop,
	})
	return f
}

func TestDispatch_DefaultFill(t *testing.T) {
	f := newFixture(t)

	before := time.Now()
	f.dispatcher.Dispatch(RawEvent{Message: "x"})

	all := f.store.All()
	require.Len(t, all, 1)
	n := all[0]

	assert.Equal(t, types.NotificationInfo, n.Type)
	assert.Equal(t, types.PriorityMedium, n.Priority)
	assert.Equal(t, "Notification", n.Title)
	assert.Equal(t, "x", n.Message)
	assert.False(t, n.Read)
	assert.True(t, strings.HasPrefix(n.ID, "notif-"), "generated id, got %q", n.ID)
	assert.WithinDuration(t, before, n.Timestamp, 2*time.Second)
}

func TestDispatch_UnknownTypeAndPriorityNormalized(t *testing.T) {
	f := newFixture(t)

	f.dispatcher.Dispatch(RawEvent{Message: "m", Type: "party", Priority: "extreme"})

	n := f.store.All()[0]
	assert.Equal(t, types.NotificationInfo, n.Type)
	assert.Equal(t, types.PriorityMedium, n.Priority)
}

func TestDispatch_SuppliedFieldsKept(t *testing.T) {
	f := newFixture(t)

	f.dispatcher.Dispatch(RawEvent{
		ID:        "server-1",
		Type:      "escalation",
		Priority:  "urgent",
		Title:     "Escalated",
		Message:   "m",
		Timestamp: "2026-08-29T10:00:00Z",
		Data:      map[string]any{"complaintId": "42"},
		Link:      "/complaints/42",
	})

	n := f.store.All()[0]
	assert.Equal(t, "server-1", n.ID)
	assert.Equal(t, types.NotificationEscalation, n.Type)
	assert.Equal(t, types.PriorityUrgent, n.Priority)
	assert.Equal(t, "Escalated", n.Title)
	assert.Equal(t, time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC), n.Timestamp.UTC())
	assert.Equal(t, "42", n.Data["complaintId"])
}

func TestDispatch_SoundPreferenceGating(t *testing.T) {
	f := newFixture(t)

	t.Run("sound disabled", func(t *testing.T) {
		f.prefs.Update(map[string]json.RawMessage{"sound": json.RawMessage("false")})

		f.dispatcher.Dispatch(RawEvent{Message: "m", Priority: "urgent"})
		assert.Equal(t, 1, f.store.Len(), "store updated regardless of channel gating")
		assert.Empty(t, f.sound.played)
	})

	t.Run("sound enabled", func(t *testing.T) {
		f.prefs.Update(map[string]json.RawMessage{"sound": json.RawMessage("true")})

		f.dispatcher.Dispatch(RawEvent{Message: "m", Priority: "urgent"})
		assert.Len(t, f.sound.played, 1)
	})

	t.Run("low priority never plays", func(t *testing.T) {
		f.dispatcher.Dispatch(RawEvent{Message: "m", Priority: "low"})
		assert.Len(t, f.sound.played, 1)
	})
}

func TestDispatch_AssignmentScenario(t *testing.T) {
	f := newFixture(t)

	f.dispatcher.Dispatch(RawEvent{
		Type:     "assignment",
		Priority: "high",
		Message:  "Complaint #77 assigned",
	})

	all := f.store.All()
	require.Len(t, all, 1)
	n := all[0]
	assert.Equal(t, types.NotificationAssignment, n.Type)
	assert.Equal(t, types.PriorityHigh, n.Priority)
	assert.Equal(t, "Complaint #77 assigned", n.Message)

	require.Len(t, f.banner.shown, 1)
	assert.Equal(t, BannerError, f.banner.shown[0].Style)
	assert.Equal(t, 5*time.Second, f.banner.shown[0].Duration)

	assert.Len(t, f.sound.played, 1)
	require.Len(t, f.desktop.notified, 1)
	assert.Equal(t, "Complaint #77 assigned", f.desktop.notified[0][1])
}

func TestDispatch_BannerStyleTable(t *testing.T) {
	cases := []struct {
		priority string
		style    BannerStyle
		duration time.Duration
	}{
		{"urgent", BannerError, 6 * time.Second},
		{"high", BannerError, 5 * time.Second},
		{"medium", BannerSuccess, defaultBannerDuration},
		{"low", BannerNeutral, defaultBannerDuration},
	}

	for _, tc := range cases {
		t.Run(tc.priority, func(t *testing.T) {
			f := newFixture(t)
			f.dispatcher.Dispatch(RawEvent{Message: "m", Priority: tc.priority})

			require.Len(t, f.banner.shown, 1)
			assert.Equal(t, tc.style, f.banner.shown[0].Style)
			assert.Equal(t, tc.duration, f.banner.shown[0].Duration)
			assert.NotEmpty(t, f.banner.shown[0].Icon)
		})
	}
}

func TestDispatch_InAppDisabledSkipsBanner(t *testing.T) {
	f := newFixture(t)
	f.prefs.Update(map[string]json.RawMessage{"inApp": json.RawMessage("false")})

	f.dispatcher.Dispatch(RawEvent{Message: "m"})
	assert.Equal(t, 1, f.store.Len())
	assert.Empty(t, f.banner.shown)
}

func TestDispatch_DesktopGating(t *testing.T) {
	t.Run("permission not granted", func(t *testing.T) {
		f := newFixture(t)
		f.desktop.granted = false

		f.dispatcher.Dispatch(RawEvent{Message: "m"})
		assert.Empty(t, f.desktop.notified)
	})

	t.Run("capability absent", func(t *testing.T) {
		f := newFixture(t)
		f.desktop.available = false

		f.dispatcher.Dispatch(RawEvent{Message: "m"})
		assert.Empty(t, f.desktop.notified)
	})

	t.Run("preference disabled", func(t *testing.T) {
		f := newFixture(t)
		f.prefs.Update(map[string]json.RawMessage{"desktop": json.RawMessage("false")})

		f.dispatcher.Dispatch(RawEvent{Message: "m"})
		assert.Empty(t, f.desktop.notified)
	})
}

func TestDispatch_ChannelFailureIsolated(t *testing.T) {
	t.Run("error", func(t *testing.T) {
		f := newFixture(t)
		f.banner.err = assert.AnError

		f.dispatcher.Dispatch(RawEvent{Message: "m", Priority: "urgent"})
		assert.Equal(t, 1, f.store.Len())
		assert.Len(t, f.sound.played, 1, "later channels still run")
	})

	t.Run("panic", func(t *testing.T) {
		f := newFixture(t)
		f.dispatcher.channels.Banner = panickingBanner{}

		require.NotPanics(t, func() {
			f.dispatcher.Dispatch(RawEvent{Message: "m", Priority: "urgent"})
		})
		assert.Equal(t, 1, f.store.Len())
		assert.Len(t, f.sound.played, 1)
	})
}

func TestDispatchFrame(t *testing.T) {
	t.Run("valid frame", func(t *testing.T) {
		f := newFixture(t)
		f.dispatcher.DispatchFrame([]byte(`{"type":"resolution","message":"done","extraField":123}`))

		all := f.store.All()
		require.Len(t, all, 1)
		assert.Equal(t, types.NotificationResolution, all[0].Type)
	})

	t.Run("invalid json dropped", func(t *testing.T) {
		f := newFixture(t)
		f.dispatcher.DispatchFrame([]byte(`{"type":`))

		assert.Equal(t, 0, f.store.Len())
		assert.Empty(t, f.banner.shown)
	})

	t.Run("missing message dropped", func(t *testing.T) {
		f := newFixture(t)
		f.dispatcher.DispatchFrame([]byte(`{"type":"info"}`))

		assert.Equal(t, 0, f.store.Len())
	})
}

func TestDispatch_StoreUpdatedBeforeSideEffects(t *testing.T) {
	f := newFixture(t)

	var lenAtBanner int
	f.dispatcher.channels.Banner = bannerFunc(func(Banner) error {
		lenAtBanner = f.store.Len()
		return nil
	})

	f.dispatcher.Dispatch(RawEvent{Message: "m"})
	assert.Equal(t, 1, lenAtBanner, "store mutation precedes side effects")
}

type bannerFunc func(Banner) error

func (fn bannerFunc) Show(b Banner) error { return fn(b) }
