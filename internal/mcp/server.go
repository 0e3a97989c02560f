package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/nbbaier/supertag/internal/config"
	superr "github.com/nbbaier/supertag/internal/errors"
	"github.com/nbbaier/supertag/internal/logging"
	"github.com/nbbaier/supertag/internal/sink"
)

// Deps are the components the RPC tool handlers read from and write
// through. Like the webhook surface, workspace resolution happens per
// request via a `workspace` parameter, so Deps carries the registry.
type Deps struct {
	Config *config.Config
	Pool   *Pool
	Sink   sink.Sink

	onceEngine lazyEngine
}

// Server is a line-delimited JSON-RPC 2.0 server over stdin/stdout. One
// request is read, dispatched, and answered per line; concurrent
// in-flight requests are supported, so writes to stdout are
// mutex-guarded.
type Server struct {
	deps   *Deps
	in     io.Reader
	out    io.Writer
	mu     sync.Mutex // guards writes to out
	wg     sync.WaitGroup
	done   chan struct{}
	tools  map[string]toolFunc
}

type toolFunc func(ctx context.Context, deps *Deps, params json.RawMessage) (interface{}, error)

// New builds a Server reading requests from in and writing responses to out.
func New(deps *Deps, in io.Reader, out io.Writer) *Server {
	s := &Server{deps: deps, in: in, out: out, done: make(chan struct{})}
	s.tools = map[string]toolFunc{
		"search":     s.toolSearch,
		"tagged":     s.toolTagged,
		"stats":      s.toolStats,
		"supertags":  s.toolSupertags,
		"node":       s.toolNode,
		"create":     s.toolCreate,
		"sync":       s.toolSync,
	}
	return s
}

// Serve reads one JSON-RPC request per line until in is exhausted,
// dispatching each to its tool handler concurrently (with ctx) and
// writing the response as it completes. Cancelling ctx does not stop
// the read loop. It returns when all in-flight requests have been
// answered.
func (s *Server) Serve(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		lineCopy := append([]byte(nil), line...)

		var req Request
		if err := json.Unmarshal(lineCopy, &req); err != nil {
			s.writeResponse(Response{JSONRPC: "2.0", Error: &RPCError{Code: codeParseError, Message: "invalid JSON-RPC request"}})
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.dispatch(ctx, req)
		}()
	}

	s.wg.Wait()
	close(s.done)
	if err := scanner.Err(); err != nil {
		return superr.Wrap(superr.InternalError, err, "reading rpc requests")
	}
	return nil
}

// Done signals once all in-flight requests have drained after Serve returns.
func (s *Server) Done() <-chan struct{} { return s.done }

func (s *Server) dispatch(ctx context.Context, req Request) {
	fn, ok := s.tools[req.Method]
	if !ok {
		s.writeResponse(Response{JSONRPC: "2.0", ID: req.ID, Error: &RPCError{Code: codeMethodNotFound, Message: "unknown method " + req.Method}})
		return
	}

	result, err := fn(ctx, s.deps, req.Params)
	if err != nil {
		s.writeResponse(Response{JSONRPC: "2.0", ID: req.ID, Error: toRPCError(err)})
		return
	}
	s.writeResponse(Response{JSONRPC: "2.0", ID: req.ID, Result: result})
}

func (s *Server) writeResponse(resp Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		logging.Get(logging.CategoryRPC).Error("marshaling rpc response: %v", err)
		return
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.out.Write(data); err != nil {
		logging.Get(logging.CategoryRPC).Error("writing rpc response: %v", err)
	}
}

// toRPCError maps an internal error into a JSON-RPC error, carrying the
// error-kind name in Data so a caller can branch on it the way the
// HTTP surface branches on status code.
func toRPCError(err error) *RPCError {
	e, ok := superr.As(err)
	if !ok {
		return &RPCError{Code: codeInternalError, Message: err.Error()}
	}
	code := codeApplicationErr
	if superr.IsRetryable(e) {
		code = codeApplicationErr - 1
	}
	return &RPCError{
		Code:    code,
		Message: e.Message,
		Data:    map[string]string{"kind": string(e.Kind)},
	}
}

func unmarshalParams(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return superr.New(superr.MissingRequired, "missing params")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return superr.Wrap(superr.InvalidParameter, err, "decoding params")
	}
	return nil
}
