package main

import (
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/campusdesk/campusdesk-notify/internal/dispatch"
	"github.com/campusdesk/campusdesk-notify/types"
)

// terminalBanner renders ephemeral banners as single lines on stdout.
type terminalBanner struct {
	mu sync.Mutex
}

func (t *terminalBanner) Show(b dispatch.Banner) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := fmt.Fprintf(os.Stdout, "%s [%s] %s: %s\n",
		b.Icon, b.Style, b.Notification.Title, b.Notification.Message)
	return err
}

// terminalSound rings the terminal bell.
type terminalSound struct{}

func (terminalSound) Play(_ types.Notification) error {
	_, err := fmt.Fprint(os.Stdout, "\a")
	return err
}

// desktopNotifier shells out to notify-send where available. Freedesktop
// has no permission prompt, so availability doubles as the grant.
type desktopNotifier struct {
	path string
}

func newDesktopNotifier() *desktopNotifier {
	path, err := exec.LookPath("notify-send")
	if err != nil {
		return &desktopNotifier{}
	}
	return &desktopNotifier{path: path}
}

func (d *desktopNotifier) Available() bool {
	return d.path != ""
}

func (d *desktopNotifier) Granted() bool {
	return d.path != ""
}

func (d *desktopNotifier) Request() error {
	if d.path == "" {
		return fmt.Errorf("notify-send not found on PATH")
	}
	return nil
}

func (d *desktopNotifier) Notify(title, message string) error {
	return exec.Command(d.path, title, message).Run()
}
