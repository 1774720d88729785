package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"pluswm/internal/ipc"
	"pluswm/pkg/logger"
)

func serve(t *testing.T, h ipc.Handler) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ctl.sock")
	srv, err := ipc.Listen(path, h, logger.Nop())
	require.NoError(t, err)
	go srv.Serve()
	t.Cleanup(func() { _ = srv.Close() })
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestClientsText(t *testing.T) {
	path := serve(t, func(req ipc.Request) ipc.Response {
		assert.Equal(t, "clients", req.Command)
		return ipc.Response{Status: ipc.StatusSuccess, Message: "2 clients", Clients: []ipc.ClientInfo{
			{Window: "0x400001", X: 15, Y: 15, Width: 800, Height: 600, Tags: 1, Focused: true},
			{Window: "0x600003", Width: 300, Height: 200, Tags: 2, Floating: true, Hidden: true},
		}}
	})

	out, err := execute(t, "--socket", path, "clients")
	require.NoError(t, err)
	assert.Equal(t,
		"0x400001\t800x600+15+15\ttags=0x1\tfocused\n"+
			"0x600003\t300x200+0+0\ttags=0x2\tfloating,hidden\n", out)
}

func TestActionPassesArgumentsVerbatim(t *testing.T) {
	var got ipc.Request
	path := serve(t, func(req ipc.Request) ipc.Response {
		got = req
		return ipc.Response{Status: ipc.StatusSuccess, Message: `spawn("xterm -e top")`}
	})

	out, err := execute(t, "--socket", path, "--format", "json", "action", "spawn", "xterm", "-e", "top")
	require.NoError(t, err)
	assert.Equal(t, ipc.Request{Command: "action", Args: []string{"spawn", "xterm", "-e", "top"}}, got)

	var resp ipc.Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, ipc.StatusSuccess, resp.Status)
}

func TestErrorResponseFails(t *testing.T) {
	path := serve(t, func(req ipc.Request) ipc.Response {
		return ipc.Response{Status: ipc.StatusError, Message: "focus 0x9: unknown window"}
	})

	out, err := execute(t, "--socket", path, "--format", "yaml", "focus", "0x9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown window")

	var resp map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp["status"])
}

func TestFocusNeedsOneArgument(t *testing.T) {
	_, err := execute(t, "focus")
	assert.Error(t, err)
}

func TestUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, printResponse(&buf, ipc.Response{Status: ipc.StatusSuccess}, "xml"))
}
