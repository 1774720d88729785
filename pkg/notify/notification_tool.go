package notify

import (
	"errors"
	"os/exec"
)

var errNoTool = errors.New("no notification tools available")

type notificationTool struct {
	name         string
	buildCommand func(tool string, title string, message string, nType NotificationType) *exec.Cmd
}

var notificationTools = []notificationTool{
	{
		name: "dunstify",
		buildCommand: func(tool string, title string, message string, nType NotificationType) *exec.Cmd {
			urgency := "normal"
			if nType == Error {
				urgency = "critical"
			}
			return exec.Command(tool, "-u", urgency, "-t", "5000", title, message)
		},
	},
	{
		name: "notify-send",
		buildCommand: func(tool string, title string, message string, nType NotificationType) *exec.Cmd {
			urgency := "normal"
			if nType == Error {
				urgency = "critical"
			}
			return exec.Command(tool, "-u", urgency, title, message)
		},
	},
}

func (n *NotifyService) trySystemNotification(title string, message string, nType NotificationType) error {
	for _, tool := range n.tools {
		path, err := n.lookPath(tool.name)
		if err != nil {
			continue
		}
		cmd := tool.buildCommand(path, title, message, nType)
		if err := cmd.Run(); err != nil {
			n.log.Warn("Notification tool failed", "tool", tool.name, "error", err)
			continue
		}
		n.log.Debug("Notification sent successfully",
			"tool", tool.name,
			"type", nType)
		return nil
	}
	return errNoTool
}
