package proto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReply(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected Reply
	}{
		{
			name:     "connected",
			line:     "CONNECTED <sonic-server v1.4.9>\r\n",
			expected: Reply{Type: ReplyConnected, Message: "<sonic-server v1.4.9>"},
		},
		{
			name:     "started",
			line:     "STARTED search protocol(1) buffer(20000)\r\n",
			expected: Reply{Type: ReplyStarted, Fields: []string{"search", "protocol(1)", "buffer(20000)"}},
		},
		{
			name:     "ok",
			line:     "OK\r\n",
			expected: Reply{Type: ReplyOK},
		},
		{
			name:     "pong",
			line:     "PONG\r\n",
			expected: Reply{Type: ReplyPong},
		},
		{
			name:     "ended",
			line:     "ENDED quit\r\n",
			expected: Reply{Type: ReplyEnded, Message: "quit"},
		},
		{
			name:     "pending",
			line:     "PENDING Bt2m2gYa\r\n",
			expected: Reply{Type: ReplyPending, ID: "Bt2m2gYa"},
		},
		{
			name:     "event",
			line:     "EVENT QUERY abcd result:1 result:2\r\n",
			expected: Reply{Type: ReplyEvent, Kind: "QUERY", ID: "abcd", Fields: []string{"result:1", "result:2"}},
		},
		{
			name:     "event without results",
			line:     "EVENT SUGGEST abcd\r\n",
			expected: Reply{Type: ReplyEvent, Kind: "SUGGEST", ID: "abcd", Fields: []string{}},
		},
		{
			name:     "result",
			line:     "RESULT 42\r\n",
			expected: Reply{Type: ReplyResult, Fields: []string{"42"}},
		},
		{
			name:     "err keeps message verbatim",
			line:     "ERR invalid_format(QUERY <collection> <bucket> \"<terms>\")\r\n",
			expected: Reply{Type: ReplyErr, Message: "invalid_format(QUERY <collection> <bucket> \"<terms>\")"},
		},
		{
			name:     "bare lf",
			line:     "PONG\n",
			expected: Reply{Type: ReplyUnknown},
		},
		{
			name:     "pong with trailing text",
			line:     "PONG extra\r\n",
			expected: Reply{Type: ReplyUnknown},
		},
		{
			name:     "pending without id",
			line:     "PENDING\r\n",
			expected: Reply{Type: ReplyUnknown},
		},
		{
			name:     "event without id",
			line:     "EVENT QUERY\r\n",
			expected: Reply{Type: ReplyUnknown, Fields: []string{"QUERY"}},
		},
		{
			name:     "unknown word",
			line:     "HELLO there\r\n",
			expected: Reply{Type: ReplyUnknown},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply, err := ParseReply(tt.line)
			require.NoError(t, err)

			tt.expected.Raw = tt.line
			assert.Equal(t, &tt.expected, reply)
		})
	}
}

func TestParseReply_UnterminatedQuote(t *testing.T) {
	_, err := ParseReply("EVENT QUERY abcd \"open\r\n")

	var protoErr *ProtocolError
	assert.ErrorAs(t, err, &protoErr)
}

func TestParseStarted(t *testing.T) {
	started, ok := ParseStarted("STARTED ingest protocol(1) buffer(20000)\r\n")
	require.True(t, ok)
	assert.Equal(t, Started{Mode: "ingest", Protocol: 1, BufferSize: 20000}, started)

	for _, line := range []string{
		"STARTED ingest\r\n",
		"STARTED ingest protocol(x) buffer(20000)\r\n",
		"STARTED ingest protocol(1) buffer(20000) extra\r\n",
		"OK\r\n",
	} {
		_, ok := ParseStarted(line)
		assert.False(t, ok, "line %q", line)
	}
}

func TestParseCount(t *testing.T) {
	n, ok := ParseCount(&Reply{Type: ReplyResult, Fields: []string{"7"}})
	require.True(t, ok)
	assert.Equal(t, 7, n)

	for _, r := range []*Reply{
		{Type: ReplyResult, Fields: []string{"x"}},
		{Type: ReplyResult, Fields: []string{"-1"}},
		{Type: ReplyResult, Fields: []string{"1", "2"}},
		{Type: ReplyOK},
	} {
		_, ok := ParseCount(r)
		assert.False(t, ok)
	}
}

func TestParseInfo(t *testing.T) {
	reply, err := ParseReply("RESULT uptime(3600) clients_connected(2) commands_total(42) kv_open_count()\r\n")
	require.NoError(t, err)

	info, ok := ParseInfo(reply)
	require.True(t, ok)
	assert.Equal(t, map[string]string{
		"uptime":            "3600",
		"clients_connected": "2",
		"commands_total":    "42",
		"kv_open_count":     "",
	}, info)

	reply, err = ParseReply("RESULT 42\r\n")
	require.NoError(t, err)
	_, ok = ParseInfo(reply)
	assert.False(t, ok)
}
