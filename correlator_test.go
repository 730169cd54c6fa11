package sonic

import (
	"io"
	"testing"

	"github.com/pior/sonic/proto"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCorrelator() *eventCorrelator {
	nop := zerolog.Nop()
	return &eventCorrelator{logger: &nop}
}

// script returns a lineReader replaying lines, then io.EOF.
func script(lines ...string) lineReader {
	return func() (string, error) {
		if len(lines) == 0 {
			return "", io.EOF
		}
		line := lines[0]
		lines = lines[1:]
		return line, nil
	}
}

func TestCorrelator_RegisterTwice(t *testing.T) {
	ec := newTestCorrelator()

	require.NoError(t, ec.register("a", "QUERY"))

	err := ec.register("b", "QUERY")
	var protoErr *proto.ProtocolError
	require.ErrorAs(t, err, &protoErr)
	assert.Contains(t, protoErr.Message, "a is still pending")
}

func TestCorrelator_AwaitWithoutRegistration(t *testing.T) {
	ec := newTestCorrelator()

	_, err := ec.awaitEvent(proto.CmdQuery, script("EVENT QUERY a x\r\n"))
	assert.Equal(t, proto.KindProtocol, proto.KindOf(err))
}

func TestCorrelator_AwaitEventClearsRegistration(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		kind  proto.ErrorKind
	}{
		{"match", []string{"EVENT QUERY a x y\r\n"}, proto.KindUnknown},
		{"other id", []string{"EVENT QUERY b x\r\n"}, proto.KindProtocol},
		{"other kind", []string{"EVENT LIST a x\r\n"}, proto.KindWrongResponse},
		{"server error", []string{"ERR boom\r\n"}, proto.KindRemote},
		{"not an event", []string{"OK\r\n"}, proto.KindProtocol},
		{"read failure", nil, proto.KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ec := newTestCorrelator()
			require.NoError(t, ec.register("a", "QUERY"))

			_, err := ec.awaitEvent(proto.CmdQuery, script(tt.lines...))
			if tt.lines == nil {
				assert.ErrorIs(t, err, io.EOF)
			} else {
				assert.Equal(t, tt.kind, proto.KindOf(err))
			}
			assert.Nil(t, ec.pending)
		})
	}
}

func TestCorrelator_AwaitEventPayload(t *testing.T) {
	ec := newTestCorrelator()
	require.NoError(t, ec.register("a", "SUGGEST"))

	reply, err := ec.awaitEvent(proto.CmdSuggest, script("EVENT SUGGEST a pizza pizzeria\r\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"pizza", "pizzeria"}, reply.Fields)
}

func TestCorrelator_AwaitPending(t *testing.T) {
	ec := newTestCorrelator()

	id, err := ec.awaitPending(proto.CmdQuery, script(
		"EVENT QUERY old x\r\n",
		"EVENT LIST older\r\n",
		"PENDING fresh\r\n",
	))
	require.NoError(t, err)
	assert.Equal(t, "fresh", id)
}

func TestCorrelator_AwaitPendingErrors(t *testing.T) {
	ec := newTestCorrelator()

	_, err := ec.awaitPending(proto.CmdQuery, script("ERR query_error\r\n"))
	assert.Equal(t, proto.KindRemote, proto.KindOf(err))

	_, err = ec.awaitPending(proto.CmdQuery, script("RESULT 1\r\n"))
	assert.Equal(t, proto.KindWrongResponse, proto.KindOf(err))

	_, err = ec.awaitPending(proto.CmdQuery, script("garbage\r\n"))
	assert.Equal(t, proto.KindProtocol, proto.KindOf(err))
}
