// Command notifytail connects to the campus facilities push channel and
// renders incoming notifications on the terminal until interrupted.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/campusdesk/campusdesk-notify/config"
	"github.com/campusdesk/campusdesk-notify/internal/client"
	"github.com/campusdesk/campusdesk-notify/logger"
	"github.com/campusdesk/campusdesk-notify/types"
)

func main() {
	logger.InitLogger()
	log := logger.GetLogger()
	defer func() {
		_ = logger.Close()
	}()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalw("Failed to load configuration", "error", err)
	}

	c, err := client.New(cfg, client.Options{
		Banner:  &terminalBanner{},
		Sound:   terminalSound{},
		Desktop: newDesktopNotifier(),
	})
	if err != nil {
		log.Fatalw("Failed to build notification client", "error", err)
	}
	defer func() {
		if err := c.Close(); err != nil {
			log.Warnw("Error closing client", "error", err)
		}
	}()

	c.OnChange(func() {
		log.Debugw("Notification store changed", "unread", c.UnreadCount())
	})

	if err := c.Start(); err != nil {
		log.Fatalw("Failed to start notification client", "error", err)
	}

	log.Infow("Tailing notifications",
		"server", cfg.Connection.ServerURL,
		"stored", len(c.Notifications()),
		"unread", c.UnreadCount())

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	c.Logout()
	if state := c.ConnectionState(); state != types.StateDisconnected {
		log.Warnw("Connection did not reach disconnected state", "state", state)
	}
	log.Info("Shutting down")
}
