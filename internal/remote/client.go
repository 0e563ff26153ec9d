package remote

import (
	"context"
	"fmt"
	"io/fs"
	"net"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/liftfs/liftfs/internal/codec"
	"github.com/liftfs/liftfs/internal/fsops"
)

// Client is the caller-held handle to a connected helper. One client owns
// one connection; calls are serialized on it. It implements fsops.FileOps
// so it can stand in wherever the local implementation does.
type Client struct {
	conn    net.Conn
	timeout time.Duration
	hello   Hello

	mu  sync.Mutex
	enc *cbor.Encoder
	dec *cbor.Decoder
}

var _ fsops.FileOps = (*Client)(nil)

// NewClient performs the handshake on conn and returns a live client. The
// helper speaks first: its hello must arrive before deadline or the
// handshake fails. NewClient does not validate the hello contents beyond
// decoding them; the launcher decides what a valid binding looks like.
func NewClient(conn net.Conn, deadline time.Time, timeout time.Duration) (*Client, error) {
	c := &Client{
		conn:    conn,
		timeout: timeout,
		enc:     codec.NewEncoder(conn),
		dec:     codec.NewDecoder(conn),
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil, fmt.Errorf("setting handshake deadline: %w", err)
	}
	if err := c.dec.Decode(&c.hello); err != nil {
		return nil, fmt.Errorf("reading helper hello: %w", err)
	}
	if err := conn.SetReadDeadline(time.Time{}); err != nil {
		return nil, fmt.Errorf("clearing handshake deadline: %w", err)
	}
	return c, nil
}

// Hello returns the handshake the helper sent when the connection was
// established.
func (c *Client) Hello() Hello {
	return c.hello
}

// Close asks the helper to shut down and closes the connection. The
// shutdown request is best effort; the helper also exits on EOF.
func (c *Client) Close() error {
	c.mu.Lock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(time.Second))
	_ = c.enc.Encode(Request{ID: uuid.NewString(), Op: OpShutdown})
	c.mu.Unlock()
	return c.conn.Close()
}

func (c *Client) call(ctx context.Context, req Request) (Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	req.ID = uuid.NewString()

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return Response{}, fmt.Errorf("setting call deadline: %w", err)
	}
	defer c.conn.SetDeadline(time.Time{}) //nolint:errcheck // reset only

	if err := c.enc.Encode(req); err != nil {
		return Response{}, fmt.Errorf("sending %s request: %w", req.Op, err)
	}
	var resp Response
	if err := c.dec.Decode(&resp); err != nil {
		return Response{}, fmt.Errorf("reading %s response: %w", req.Op, err)
	}
	if resp.ID != req.ID {
		return Response{}, fmt.Errorf("helper response out of sync: got id %q, want %q", resp.ID, req.ID)
	}
	if !resp.OK {
		return Response{}, &OpError{Op: req.Op, Path: req.Path, Kind: resp.ErrKind, Message: resp.Error}
	}
	return resp, nil
}

func (c *Client) ReadFile(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.call(ctx, Request{Op: OpRead, Path: path})
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) WriteFile(ctx context.Context, path string, data []byte, perm fs.FileMode) error {
	_, err := c.call(ctx, Request{Op: OpWrite, Path: path, Data: data, Mode: uint32(perm)})
	return err
}

func (c *Client) Stat(ctx context.Context, path string) (fsops.FileInfo, error) {
	resp, err := c.call(ctx, Request{Op: OpStat, Path: path})
	if err != nil {
		return fsops.FileInfo{}, err
	}
	if resp.Info == nil {
		return fsops.FileInfo{}, fmt.Errorf("helper stat response for %q carried no file info", path)
	}
	return *resp.Info, nil
}

func (c *Client) List(ctx context.Context, path string) ([]fsops.FileInfo, error) {
	resp, err := c.call(ctx, Request{Op: OpList, Path: path})
	if err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

func (c *Client) Remove(ctx context.Context, path string) error {
	_, err := c.call(ctx, Request{Op: OpRemove, Path: path})
	return err
}

func (c *Client) Rename(ctx context.Context, oldPath, newPath string) error {
	_, err := c.call(ctx, Request{Op: OpRename, Path: oldPath, Path2: newPath})
	return err
}

func (c *Client) Chmod(ctx context.Context, path string, perm fs.FileMode) error {
	_, err := c.call(ctx, Request{Op: OpChmod, Path: path, Mode: uint32(perm)})
	return err
}
