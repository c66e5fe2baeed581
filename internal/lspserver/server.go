// Package lspserver implements the JSON-RPC 2.0 transport and method
// dispatch loop, replacing the teacher's hand-rolled LSPMessage framing
// in lsp/server.go with go.lsp.dev/jsonrpc2's Stream and go.lsp.dev/
// protocol's wire types (§6/§12).
package lspserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"runtime/debug"

	"github.com/sirupsen/logrus"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"

	"github.com/graelo/gcode-language-server/internal/document"
	"github.com/graelo/gcode-language-server/internal/flavor"
)

// Server owns the transport stream and dispatches incoming messages to
// the document service. One Server serves exactly one client
// connection, matching the teacher's one-process-per-client model.
type Server struct {
	stream jsonrpc2.Stream
	logger *logrus.Logger

	registry *flavor.Registry
	docs     *document.Service

	// OnInitialize, if set, is called once with the client's workspace
	// root (empty if none was supplied) when the initialize request
	// arrives, before the InitializeResult is returned. main uses this
	// to start watching the workspace's .gcode-ls/flavors directory,
	// since that root is not known until the client tells us.
	OnInitialize func(rootURI string)

	shuttingDown bool
}

// New constructs a Server reading/writing conn with Content-Length
// framing (go.lsp.dev/jsonrpc2.NewStream).
func New(conn io.ReadWriteCloser, registry *flavor.Registry, docs *document.Service, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Server{
		stream:   jsonrpc2.NewStream(conn),
		logger:   logger,
		registry: registry,
		docs:     docs,
	}
}

// Run reads messages until the stream closes or exit is received,
// dispatching each on the calling goroutine, so messages are handled
// one at a time in arrival order.
func (s *Server) Run(ctx context.Context) error {
	for {
		msg, _, err := s.stream.Read(ctx)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("reading jsonrpc2 message: %w", err)
		}

		if err := s.dispatch(ctx, msg); err != nil {
			s.logger.WithError(err).Error("handling message")
		}

		if s.shuttingDown {
			return nil
		}
	}
}

func (s *Server) dispatch(ctx context.Context, msg jsonrpc2.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.WithField("panic", r).WithField("stack", string(debug.Stack())).Error("recovered panic handling message")
			err = fmt.Errorf("internal error: %v", r)
			if call, ok := msg.(*jsonrpc2.Call); ok {
				if resp, rerr := jsonrpc2.NewResponse(call.ID(), nil, jsonrpc2.NewError(jsonrpc2.InternalError, err.Error())); rerr == nil {
					_, _ = s.stream.Write(ctx, resp)
				}
			}
		}
	}()

	switch m := msg.(type) {
	case *jsonrpc2.Call:
		return s.dispatchCall(ctx, m)
	case *jsonrpc2.Notification:
		return s.dispatchNotification(ctx, m)
	default:
		s.logger.WithField("type", fmt.Sprintf("%T", msg)).Warn("unhandled jsonrpc2 message type")
		return nil
	}
}

func (s *Server) dispatchCall(ctx context.Context, call *jsonrpc2.Call) error {
	s.logger.WithField("method", call.Method()).Debug("received call")

	var (
		result interface{}
		rpcErr error
	)

	switch call.Method() {
	case "initialize":
		result, rpcErr = s.handleInitialize(call.Params())
	case "shutdown":
		result, rpcErr = nil, nil
	case "textDocument/hover":
		result, rpcErr = s.handleHover(call.Params())
	case "textDocument/completion":
		result, rpcErr = s.handleCompletion(call.Params())
	case "textDocument/documentSymbol":
		result, rpcErr = s.handleDocumentSymbol(call.Params())
	default:
		s.logger.WithField("method", call.Method()).Warn("unhandled call method")
		rpcErr = jsonrpc2.NewError(jsonrpc2.MethodNotFound, "method not found: "+call.Method())
	}

	resp, err := jsonrpc2.NewResponse(call.ID(), result, rpcErr)
	if err != nil {
		return fmt.Errorf("building response for %s: %w", call.Method(), err)
	}
	_, err = s.stream.Write(ctx, resp)
	return err
}

func (s *Server) dispatchNotification(ctx context.Context, n *jsonrpc2.Notification) error {
	s.logger.WithField("method", n.Method()).Debug("received notification")

	switch n.Method() {
	case "initialized":
		return nil
	case "textDocument/didOpen":
		return s.handleDidOpen(ctx, n.Params())
	case "textDocument/didChange":
		return s.handleDidChange(ctx, n.Params())
	case "textDocument/didClose":
		return s.handleDidClose(n.Params())
	case "exit":
		s.shuttingDown = true
		return nil
	default:
		s.logger.WithField("method", n.Method()).Debug("unhandled notification method")
		return nil
	}
}

func unmarshalParams(raw json.RawMessage, target interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("unmarshaling params: %w", err)
	}
	return nil
}

// showMessage sends a window/showMessage notification (§7 FlavorLoad /
// FlavorResolveMiss surfacing).
func (s *Server) showMessage(ctx context.Context, level protocol.MessageType, message string) {
	n, err := jsonrpc2.NewNotification("window/showMessage", &protocol.ShowMessageParams{
		Type:    level,
		Message: message,
	})
	if err != nil {
		s.logger.WithError(err).Error("building window/showMessage notification")
		return
	}
	if _, err := s.stream.Write(ctx, n); err != nil {
		s.logger.WithError(err).Error("writing window/showMessage notification")
	}
}

// logMessage sends a window/logMessage notification.
func (s *Server) logMessage(ctx context.Context, level protocol.MessageType, message string) {
	n, err := jsonrpc2.NewNotification("window/logMessage", &protocol.LogMessageParams{
		Type:    level,
		Message: message,
	})
	if err != nil {
		s.logger.WithError(err).Error("building window/logMessage notification")
		return
	}
	if _, err := s.stream.Write(ctx, n); err != nil {
		s.logger.WithError(err).Error("writing window/logMessage notification")
	}
}

// publishDiagnostics sends a textDocument/publishDiagnostics
// notification for one revision's diagnostic batch (§4.7/§5's
// revision-ordering invariant: the caller is responsible for never
// calling this out of revision order for a given URI).
func (s *Server) publishDiagnostics(ctx context.Context, uri string, diags []protocol.Diagnostic) {
	n, err := jsonrpc2.NewNotification("textDocument/publishDiagnostics", &protocol.PublishDiagnosticsParams{
		URI:         protocol.DocumentURI(uri),
		Diagnostics: diags,
	})
	if err != nil {
		s.logger.WithError(err).Error("building publishDiagnostics notification")
		return
	}
	if _, err := s.stream.Write(ctx, n); err != nil {
		s.logger.WithError(err).Error("writing publishDiagnostics notification")
	}
}
