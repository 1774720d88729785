package notify

import (
	"fmt"
	"os"
	"os/exec"

	"pluswm/pkg/core"
)

// NotificationType represents the type of notification
type NotificationType int

const (
	Error NotificationType = iota
	Info
)

// NotifyService shows desktop notifications, falling back to stderr when
// no notification tool is installed.
type NotifyService struct {
	log   core.Logger
	tools []notificationTool

	// lookPath is exec.LookPath, replaced in tests
	lookPath func(string) (string, error)
}

// NewNotifyService creates a new notification service
func NewNotifyService(log core.Logger) *NotifyService {
	return &NotifyService{
		log:      log,
		tools:    notificationTools,
		lookPath: exec.LookPath,
	}
}

// Notify shows an error notification. It satisfies core.Notifier.
func (n *NotifyService) Notify(title, message string) error {
	return n.Show(title, message, Error)
}

// Show displays a notification of the specified type
func (n *NotifyService) Show(title, message string, nType NotificationType) error {
	if err := n.trySystemNotification(title, message, nType); err == nil {
		return nil
	}
	n.log.Debug("No notification tool available, printing to stderr")
	return printToTerminal(title, message, nType)
}

func printToTerminal(title, message string, nType NotificationType) error {
	colorCode := "\x1b[32m" // green
	kind := "Info"
	if nType == Error {
		colorCode = "\x1b[31m" // red
		kind = "Error"
	}
	_, err := fmt.Fprintf(os.Stderr, "%s%s - %s: %s\x1b[0m\n", colorCode, title, kind, message)
	return err
}
