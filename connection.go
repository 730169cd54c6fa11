package sonic

import (
	"bufio"
	"context"
	"errors"
	"net"
	"time"

	"github.com/pior/sonic/proto"
	"github.com/rs/zerolog"
)

var (
	ErrConnectionClosed = errors.New("sonic: connection closed")
)

// Connection is the exclusive owner of one transport.
// It is not safe for concurrent use; the channel serializes access.
type Connection struct {
	addr        string
	conn        net.Conn
	reader      *bufio.Reader
	writer      *bufio.Writer
	maxLineSize int
	closed      bool

	logger *zerolog.Logger
	stats  *statsCollector
}

// newConnection wraps an established transport.
func newConnection(conn net.Conn, readBufferSize int, logger *zerolog.Logger, stats *statsCollector) *Connection {
	if readBufferSize <= 0 {
		readBufferSize = 4096
	}
	if stats == nil {
		stats = &statsCollector{}
	}

	addr := ""
	if ra := conn.RemoteAddr(); ra != nil {
		addr = ra.String()
	}

	return &Connection{
		addr:        addr,
		conn:        conn,
		reader:      bufio.NewReaderSize(conn, readBufferSize),
		writer:      bufio.NewWriter(conn),
		maxLineSize: proto.DefaultMaxLineSize,
		logger:      logger,
		stats:       stats,
	}
}

// Addr returns the remote address
func (c *Connection) Addr() string {
	return c.addr
}

// IsClosed returns whether the connection is closed
func (c *Connection) IsClosed() bool {
	return c.closed
}

// setMaxLineSize bounds subsequent reads.
func (c *Connection) setMaxLineSize(n int) {
	c.maxLineSize = max(n, proto.MinMaxLineSize)
}

// applyDeadline maps the context deadline onto the socket.
func (c *Connection) applyDeadline(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return &proto.ConnectionError{Op: "deadline", Err: err}
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		// Clear deadline if context doesn't have one
		deadline = time.Time{}
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return &proto.ConnectionError{Op: "deadline", Err: err}
	}
	return nil
}

// Send writes one request line.
// redact hides the arguments in the debug log (START carries the password).
func (c *Connection) Send(req *proto.Request, redact bool) error {
	if c.closed {
		return &proto.ConnectionError{Op: "write", Err: ErrConnectionClosed}
	}

	n, err := proto.WriteRequest(c.writer, req)
	if err != nil {
		var encErr *proto.EncodingError
		if errors.As(err, &encErr) {
			return err
		}
		c.markClosed()
		return &proto.ConnectionError{Op: "write", Err: err}
	}
	c.stats.recordCommand(n)

	if e := c.logger.Debug(); e.Enabled() {
		if redact {
			e.Str("command", string(req.Command)).Msg("sonic: sent (redacted)")
		} else {
			e.Strs("line", req.Tokens()).Msg("sonic: sent")
		}
	}
	return nil
}

// ReadLine reads one line, terminator included.
// A read failure or oversized line closes the connection.
func (c *Connection) ReadLine() (string, error) {
	if c.closed {
		return "", &proto.ConnectionError{Op: "read", Err: ErrConnectionClosed}
	}

	line, err := proto.ReadLine(c.reader, c.maxLineSize)
	if err != nil {
		c.markClosed()
		return "", err
	}
	c.stats.recordReceive(len(line))
	c.logger.Debug().Str("line", proto.TrimTerminator(line)).Msg("sonic: received")
	return line, nil
}

// Close closes the connection
func (c *Connection) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}

// markClosed releases the transport after a fatal error. The close error is
// irrelevant: the operation already failed.
func (c *Connection) markClosed() {
	_ = c.Close()
}
