package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"pluswm/internal/wm"
	"pluswm/pkg/core"
)

// Handler answers one request.
type Handler func(req Request) Response

// Injector queues events for the dispatcher.
type Injector interface {
	Inject(ev wm.Event)
}

// InjectHandler forwards requests to the dispatcher loop as wm.Command
// events and waits up to timeout for the result.
func InjectHandler(inj Injector, timeout time.Duration) Handler {
	return func(req Request) Response {
		reply := make(chan wm.CommandResult, 1)
		inj.Inject(wm.Command{Name: req.Command, Args: req.Args, Reply: reply})
		select {
		case res := <-reply:
			return FromResult(res)
		case <-time.After(timeout):
			return Response{Status: StatusError, Message: "window manager did not answer in time"}
		}
	}
}

type Server struct {
	path     string
	handler  Handler
	log      core.Logger
	listener net.Listener
	wg       sync.WaitGroup
}

// Listen removes a stale socket at path and starts listening on it.
func Listen(path string, handler Handler, log core.Logger) (*Server, error) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to remove existing socket file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create socket directory: %w", err)
	}
	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("failed to start socket server: %w", err)
	}
	log.Info("Socket server started", "path", path)
	return &Server{path: path, handler: handler, log: log, listener: listener}, nil
}

// Serve accepts connections until Close is called.
func (s *Server) Serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.Error("Failed to accept connection", err)
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(conn)
		}()
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(30 * time.Second))

	var req Request
	if err := json.NewDecoder(conn).Decode(&req); err != nil {
		s.log.Error("Failed to decode request", err)
		return
	}
	s.log.Debug("Received request", "command", req.Command, "args", req.Args)

	var resp Response
	if req.Command == "" {
		resp = Response{Status: StatusError, Message: "missing command"}
	} else {
		resp = s.handler(req)
	}

	if err := json.NewEncoder(conn).Encode(resp); err != nil {
		s.log.Error("Failed to encode response", err)
		return
	}
	s.log.Debug("Response sent successfully", "status", resp.Status)
}

// Close stops accepting, waits for open connections and removes the socket.
func (s *Server) Close() error {
	err := s.listener.Close()
	s.wg.Wait()
	if rmErr := os.Remove(s.path); rmErr != nil && !os.IsNotExist(rmErr) && err == nil {
		err = rmErr
	}
	return err
}
