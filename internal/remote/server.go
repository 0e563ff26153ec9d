package remote

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"net"
	"os"

	"github.com/caarlos0/log"
	"github.com/liftfs/liftfs/internal/codec"
	"github.com/liftfs/liftfs/internal/fsops"
	"github.com/liftfs/liftfs/internal/privilege"
)

// Server is the helper-side request loop. It executes decoded requests
// against a FileOps implementation (the real local one, running with the
// helper's privileges) and writes one response per request.
type Server struct {
	ops    fsops.FileOps
	logger *log.Logger
}

func NewServer(ops fsops.FileOps, logger *log.Logger) *Server {
	return &Server{ops: ops, logger: logger}
}

// Serve sends the hello and then answers requests until the connection
// closes, a shutdown request arrives, or ctx is cancelled.
func (s *Server) Serve(ctx context.Context, conn net.Conn) error {
	defer conn.Close() //nolint:errcheck // close on exit

	stop := context.AfterFunc(ctx, func() {
		// Unblock the decoder so cancellation is not stuck behind a read.
		conn.Close() //nolint:errcheck // shutdown path
	})
	defer stop()

	enc := codec.NewEncoder(conn)
	dec := codec.NewDecoder(conn)

	hello := Hello{
		Service:  ServiceName,
		Version:  ProtocolVersion,
		PID:      os.Getpid(),
		EUID:     os.Geteuid(),
		Elevated: privilege.IsElevated(),
	}
	if err := enc.Encode(hello); err != nil {
		return err
	}
	s.logger.WithField("pid", hello.PID).WithField("elevated", hello.Elevated).Debug("helper connected")

	for {
		var req Request
		if err := dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		if req.Op == OpShutdown {
			s.logger.Debug("helper shutting down on request")
			_ = enc.Encode(Response{ID: req.ID, OK: true})
			return nil
		}
		if err := enc.Encode(s.handle(ctx, req)); err != nil {
			return err
		}
	}
}

func (s *Server) handle(ctx context.Context, req Request) Response {
	resp := Response{ID: req.ID}

	var err error
	switch req.Op {
	case OpRead:
		resp.Data, err = s.ops.ReadFile(ctx, req.Path)
	case OpWrite:
		err = s.ops.WriteFile(ctx, req.Path, req.Data, fs.FileMode(req.Mode))
	case OpStat:
		var info fsops.FileInfo
		if info, err = s.ops.Stat(ctx, req.Path); err == nil {
			resp.Info = &info
		}
	case OpList:
		resp.Entries, err = s.ops.List(ctx, req.Path)
	case OpRemove:
		err = s.ops.Remove(ctx, req.Path)
	case OpRename:
		err = s.ops.Rename(ctx, req.Path, req.Path2)
	case OpChmod:
		err = s.ops.Chmod(ctx, req.Path, fs.FileMode(req.Mode))
	default:
		err = errors.New("unknown operation " + req.Op)
	}

	if err != nil {
		s.logger.WithError(err).WithField("op", req.Op).WithField("path", req.Path).Debug("operation failed")
		resp.Error = err.Error()
		resp.ErrKind = errKind(err)
		return resp
	}
	resp.OK = true
	return resp
}

func errKind(err error) string {
	switch {
	case errors.Is(err, fs.ErrPermission):
		return KindPermission
	case errors.Is(err, fs.ErrNotExist):
		return KindNotFound
	}
	return ""
}
