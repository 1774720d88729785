// Package ipc is the control socket of a running window manager: one JSON
// request and one JSON response per unix socket connection.
package ipc

import (
	"fmt"
	"os"
	"path/filepath"

	"pluswm/internal/wm"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

type Request struct {
	Command string   `json:"command" yaml:"command"`
	Args    []string `json:"args,omitempty" yaml:"args,omitempty"`
}

type Response struct {
	Status  string       `json:"status" yaml:"status"`
	Message string       `json:"message" yaml:"message"`
	Clients []ClientInfo `json:"clients,omitempty" yaml:"clients,omitempty"`
}

// ClientInfo is the wire form of a client record.
type ClientInfo struct {
	Window      string `json:"window" yaml:"window"`
	X           int    `json:"x" yaml:"x"`
	Y           int    `json:"y" yaml:"y"`
	Width       uint   `json:"width" yaml:"width"`
	Height      uint   `json:"height" yaml:"height"`
	Tags        uint32 `json:"tags" yaml:"tags"`
	Focused     bool   `json:"focused" yaml:"focused"`
	Fullscreen  bool   `json:"fullscreen" yaml:"fullscreen"`
	Floating    bool   `json:"floating" yaml:"floating"`
	AlwaysOnTop bool   `json:"always_on_top" yaml:"always_on_top"`
	Sticky      bool   `json:"sticky" yaml:"sticky"`
	Hidden      bool   `json:"hidden" yaml:"hidden"`
}

func clientInfo(c wm.Client) ClientInfo {
	return ClientInfo{
		Window:      fmt.Sprintf("%#x", uint32(c.Handle())),
		X:           c.Position.X,
		Y:           c.Position.Y,
		Width:       c.Size.Width,
		Height:      c.Size.Height,
		Tags:        c.Tags,
		Focused:     c.Focused,
		Fullscreen:  c.Fullscreen,
		Floating:    c.Floating,
		AlwaysOnTop: c.AlwaysOnTop,
		Sticky:      c.Sticky,
		Hidden:      c.Hidden,
	}
}

// FromResult converts a dispatcher result into a response.
func FromResult(res wm.CommandResult) Response {
	if res.Err != nil {
		return Response{Status: StatusError, Message: res.Err.Error()}
	}
	resp := Response{Status: StatusSuccess, Message: res.Message}
	if res.Clients != nil {
		resp.Clients = make([]ClientInfo, 0, len(res.Clients))
		for _, c := range res.Clients {
			resp.Clients = append(resp.Clients, clientInfo(c))
		}
		if resp.Message == "" {
			resp.Message = fmt.Sprintf("%d clients", len(res.Clients))
		}
	}
	return resp
}

// DefaultSocketPath is $XDG_RUNTIME_DIR/pluswm.sock, or a per-user file in
// the temp directory when XDG_RUNTIME_DIR is unset.
func DefaultSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "pluswm.sock")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("pluswm-%d.sock", os.Getuid()))
}

// SocketPath returns configured, or the default when it is empty.
func SocketPath(configured string) string {
	if configured != "" {
		return configured
	}
	return DefaultSocketPath()
}
