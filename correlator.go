package sonic

import (
	"github.com/pior/sonic/proto"
	"github.com/rs/zerolog"
)

// pendingEvent is the single outstanding asynchronous reply.
type pendingEvent struct {
	id   string
	kind string
}

// lineReader yields the next line of the connection.
type lineReader func() (string, error)

// eventCorrelator matches EVENT lines with the command waiting for them.
//
// At most one command is in flight per connection, so it holds zero or one
// registration. Every line read while a registration is active must be its
// event: anything else is a protocol violation, never skipped.
type eventCorrelator struct {
	pending *pendingEvent
	logger  *zerolog.Logger
}

// awaitPending reads the immediate reply of an event-correlated command and
// returns the request id it announces.
//
// Well-formed EVENT lines read before the registration are leftovers of an
// earlier exchange and are discarded.
func (ec *eventCorrelator) awaitPending(cmd proto.CmdType, read lineReader) (string, error) {
	for {
		line, err := read()
		if err != nil {
			return "", err
		}

		reply, err := proto.ParseReply(line)
		if err != nil {
			return "", err
		}

		switch reply.Type {
		case proto.ReplyPending:
			return reply.ID, nil
		case proto.ReplyErr:
			return "", &proto.RemoteError{Message: reply.Message}
		case proto.ReplyEvent:
			ec.logger.Warn().Str("kind", reply.Kind).Str("id", reply.ID).Msg("sonic: discarding event received before PENDING")
			continue
		case proto.ReplyUnknown:
			return "", &proto.ProtocolError{Message: "unrecognized line awaiting PENDING: " + proto.TrimTerminator(line)}
		default:
			return "", &proto.WrongResponseError{Command: cmd, Line: line}
		}
	}
}

// register records the id announced by PENDING.
func (ec *eventCorrelator) register(id, kind string) error {
	if ec.pending != nil {
		return &proto.ProtocolError{Message: "unexpected event: " + ec.pending.id + " is still pending"}
	}
	ec.pending = &pendingEvent{id: id, kind: kind}
	return nil
}

// awaitEvent reads the event of the current registration. The registration
// is consumed whatever the outcome.
func (ec *eventCorrelator) awaitEvent(cmd proto.CmdType, read lineReader) (*proto.Reply, error) {
	if ec.pending == nil {
		return nil, &proto.ProtocolError{Message: "no pending event registered"}
	}
	pending := ec.pending
	defer func() { ec.pending = nil }()

	line, err := read()
	if err != nil {
		return nil, err
	}

	reply, err := proto.ParseReply(line)
	if err != nil {
		return nil, err
	}

	switch reply.Type {
	case proto.ReplyEvent:
		if reply.ID != pending.id {
			return nil, &proto.ProtocolError{Message: "event id " + reply.ID + " does not match pending " + pending.id}
		}
		if reply.Kind != pending.kind {
			return nil, &proto.WrongResponseError{Command: cmd, Line: line}
		}
		return reply, nil
	case proto.ReplyErr:
		return nil, &proto.RemoteError{Message: reply.Message}
	default:
		return nil, &proto.ProtocolError{Message: "unexpected line awaiting event " + pending.id + ": " + proto.TrimTerminator(line)}
	}
}
