package sonic

import (
	"context"
	"errors"
	"net"
	"runtime"
	"sync"

	"github.com/pior/sonic/proto"
	"github.com/rs/zerolog"
)

// channel is the mode-independent part of SearchChannel, IngestChannel and
// ControlChannel. It owns the connection and sequences every exchange.
//
// The mutex serializes callers sharing a channel, so there is never more
// than one command in flight.
type channel struct {
	mode   Mode
	logger *zerolog.Logger

	mu         sync.Mutex
	state      State
	conn       *Connection
	correlator eventCorrelator
	server     string
	started    proto.Started

	stats statsCollector
}

// start dials the server and runs the handshake:
// greeting, START, STARTED.
func start(ctx context.Context, mode Mode, config Config) (*channel, error) {
	ch := &channel{
		mode:   mode,
		logger: config.logger(),
		state:  StateConnecting,
	}
	ch.correlator.logger = ch.logger

	if config.Addr == "" {
		ch.state = StateFailed
		return nil, &proto.ConnectionError{Op: "dial", Err: errors.New("no address provided")}
	}

	netConn, err := config.dial()(ctx, "tcp", config.Addr)
	if err != nil {
		ch.state = StateFailed
		return nil, &proto.ConnectionError{Op: "dial", Err: err}
	}
	ch.conn = newConnection(netConn, config.ReadBufferSize, ch.logger, &ch.stats)

	if err := ch.handshake(ctx, config.Password); err != nil {
		ch.state = StateFailed
		ch.conn.markClosed()
		ch.logger.Error().Err(err).Str("addr", config.Addr).Str("mode", mode.String()).Msg("sonic: handshake failed")
		return nil, err
	}

	// Best-effort release when the channel is dropped without Quit or Close
	runtime.AddCleanup(ch, func(c net.Conn) { _ = c.Close() }, netConn)

	ch.logger.Debug().
		Str("addr", config.Addr).
		Str("mode", mode.String()).
		Int("protocol", ch.started.Protocol).
		Int("buffer", ch.started.BufferSize).
		Msg("sonic: channel ready")
	return ch, nil
}

func (ch *channel) handshake(ctx context.Context, password string) error {
	if err := ch.conn.applyDeadline(ctx); err != nil {
		return err
	}

	ch.state = StateAwaitingGreeting
	line, err := ch.conn.ReadLine()
	if err != nil {
		return err
	}
	greeting, err := proto.ParseReply(line)
	if err != nil {
		return err
	}
	if greeting.Type != proto.ReplyConnected {
		return &proto.ProtocolError{Message: "malformed greeting: " + proto.TrimTerminator(line)}
	}
	ch.server = greeting.Message

	ch.state = StateNegotiating
	cmd := &command{kind: cmdStart, mode: ch.mode, password: password}
	req, err := cmd.request()
	if err != nil {
		return err
	}
	if err := ch.conn.Send(req, true); err != nil {
		return err
	}

	ch.state = StateAuthenticating
	resp, err := ch.readReply(cmd)
	if err != nil {
		return err
	}

	ch.started = resp.started
	ch.conn.setMaxLineSize(resp.started.BufferSize)
	ch.state = StateReady
	return nil
}

// run executes one command: send, read the immediate reply, and for
// event-correlated commands wait for the matching event.
func (ch *channel) run(ctx context.Context, cmd *command) (response, error) {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	resp, err := ch.exchange(ctx, cmd)
	if err != nil {
		ch.stats.recordError()
		// Framing violations leave unread bytes behind: the stream is unusable
		if proto.KindOf(err) == proto.KindProtocol {
			ch.conn.markClosed()
		}
		if proto.KindOf(err) == proto.KindWrongResponse {
			ch.logger.Error().Err(err).Str("mode", ch.mode.String()).Msg("sonic: wrong response")
		}
	} else if cmd.kind == cmdQuit {
		ch.state = StateClosed
		ch.conn.markClosed()
	}

	if ch.conn.IsClosed() && ch.state == StateReady {
		ch.state = StateFailed
	}
	return resp, err
}

func (ch *channel) exchange(ctx context.Context, cmd *command) (response, error) {
	if ch.state != StateReady {
		return response{}, &proto.ConnectionError{Op: string(cmd.verb()), Err: ErrConnectionClosed}
	}
	if !cmd.allowedIn(ch.mode) {
		return response{}, &proto.EncodingError{Message: string(cmd.verb()) + " is not available in " + ch.mode.String() + " mode"}
	}

	req, err := cmd.request()
	if err != nil {
		return response{}, err
	}
	if err := ch.conn.applyDeadline(ctx); err != nil {
		return response{}, err
	}
	if err := ch.conn.Send(req, false); err != nil {
		return response{}, err
	}

	kind, correlated := cmd.eventKind()
	if !correlated {
		return ch.readReply(cmd)
	}

	id, err := ch.correlator.awaitPending(cmd.verb(), ch.conn.ReadLine)
	if err != nil {
		return response{}, err
	}
	if err := ch.correlator.register(id, kind); err != nil {
		return response{}, err
	}
	event, err := ch.correlator.awaitEvent(cmd.verb(), ch.conn.ReadLine)
	if err != nil {
		return response{}, err
	}
	ch.stats.recordEvent()
	return cmd.interpret(event)
}

// readReply reads and interprets the single reply of a simple command.
func (ch *channel) readReply(cmd *command) (response, error) {
	line, err := ch.conn.ReadLine()
	if err != nil {
		return response{}, err
	}
	reply, err := proto.ParseReply(line)
	if err != nil {
		return response{}, err
	}
	return cmd.interpret(reply)
}

// Ping checks that the server answers.
func (ch *channel) Ping(ctx context.Context) error {
	_, err := ch.run(ctx, &command{kind: cmdPing})
	return err
}

// Help returns the manual listing, or the content of manual when not empty.
func (ch *channel) Help(ctx context.Context, manual string) ([]string, error) {
	resp, err := ch.run(ctx, &command{kind: cmdHelp, manual: manual})
	return resp.items, err
}

// Quit ends the session and releases the connection.
// Quitting a closed channel returns a ConnectionError.
func (ch *channel) Quit(ctx context.Context) error {
	_, err := ch.run(ctx, &command{kind: cmdQuit})
	return err
}

// Close releases the connection without QUIT. It never fails and can be
// called any number of times.
func (ch *channel) Close() error {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	if ch.state != StateFailed {
		ch.state = StateClosed
	}
	ch.conn.markClosed()
	return nil
}

// Mode returns the mode negotiated at start.
func (ch *channel) Mode() Mode {
	return ch.mode
}

// State returns the lifecycle state.
func (ch *channel) State() State {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.state
}

// ServerInfo returns the greeting text, e.g. "<sonic-server v1.4.9>".
func (ch *channel) ServerInfo() string {
	return ch.server
}

// ProtocolVersion returns the version announced in STARTED.
func (ch *channel) ProtocolVersion() int {
	return ch.started.Protocol
}

// BufferSize returns the maximum line size announced in STARTED.
func (ch *channel) BufferSize() int {
	return ch.started.BufferSize
}

// Stats returns a snapshot of channel statistics.
func (ch *channel) Stats() ChannelStats {
	return ch.stats.snapshot()
}
