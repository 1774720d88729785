package ipc

import (
	"encoding/json"
	"fmt"
	"net"
	"time"

	"pluswm/pkg/core"
)

// SendCommand sends one request to the server at path and waits for the
// answer.
func SendCommand(path string, req Request, log core.Logger) (Response, error) {
	log.Debug("Attempting to connect to socket server", "path", path)

	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return Response{}, fmt.Errorf("connect to %s: %w", path, err)
	}
	defer conn.Close()

	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return Response{}, fmt.Errorf("failed to encode request: %w", err)
	}

	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return Response{}, fmt.Errorf("failed to decode response: %w", err)
	}
	log.Debug("Response received", "status", resp.Status, "message", resp.Message)
	return resp, nil
}
