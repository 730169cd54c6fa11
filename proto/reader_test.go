package proto

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadLine(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("PONG\r\nOK\r\nPONG\n"))

	line, err := ReadLine(r, 100)
	require.NoError(t, err)
	assert.Equal(t, "PONG\r\n", line)

	line, err = ReadLine(r, 100)
	require.NoError(t, err)
	assert.Equal(t, "OK\r\n", line)

	// Bare LF is framed; whether it is acceptable is up to the command
	line, err = ReadLine(r, 100)
	require.NoError(t, err)
	assert.Equal(t, "PONG\n", line)
}

func TestReadLine_SpansReaderBuffer(t *testing.T) {
	long := "EVENT QUERY abcd " + strings.Repeat("object:1 ", 20) + "\r\n"
	r := bufio.NewReaderSize(strings.NewReader(long), 16)

	line, err := ReadLine(r, 1000)
	require.NoError(t, err)
	assert.Equal(t, long, line)
}

func TestReadLine_TooLong(t *testing.T) {
	tests := []struct {
		name   string
		size   int
		maxLen int
	}{
		{"within reader buffer", 4096, 10},
		{"across reader buffer", 16, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := bufio.NewReaderSize(strings.NewReader(strings.Repeat("x", 100)+"\r\n"), tt.size)

			_, err := ReadLine(r, tt.maxLen)
			require.Error(t, err)

			var protoErr *ProtocolError
			assert.ErrorAs(t, err, &protoErr)
			assert.Contains(t, err.Error(), "no line terminator")
		})
	}
}

func TestReadLine_NoTerminatorBeforeEOF(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("PONG"))

	_, err := ReadLine(r, 100)
	require.Error(t, err)

	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.True(t, errors.Is(err, io.EOF))
}

func TestReadLine_InvalidUTF8(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("EVENT QUERY id \xff\xfe\r\n"))

	_, err := ReadLine(r, 100)
	var protoErr *ProtocolError
	assert.ErrorAs(t, err, &protoErr)
}

func TestReadLine_DefaultLimit(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("OK\r\n"))

	line, err := ReadLine(r, 0)
	require.NoError(t, err)
	assert.Equal(t, "OK\r\n", line)
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected []string
	}{
		{"simple", "EVENT QUERY abcd result:1 result:2\r\n", []string{"EVENT", "QUERY", "abcd", "result:1", "result:2"}},
		{"no terminator", "a b", []string{"a", "b"}},
		{"lf only", "a b\n", []string{"a", "b"}},
		{"extra spaces", "  a   b  ", []string{"a", "b"}},
		{"quoted", `PUSH c b o "hello world"`, []string{"PUSH", "c", "b", "o", "hello world"}},
		{"escapes", `X "a\"b\\c\nd\re"`, []string{"X", "a\"b\\c\nd\re"}},
		{"unknown escape kept", `X "a\tb"`, []string{"X", `a\tb`}},
		{"empty quoted", `X "" y`, []string{"X", "", "y"}},
		{"empty line", "\r\n", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Tokenize(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, tokens)
		})
	}
}

func TestTokenize_Errors(t *testing.T) {
	for _, line := range []string{`X "open`, `X "dangling\`} {
		_, err := Tokenize(line)
		var protoErr *ProtocolError
		assert.ErrorAs(t, err, &protoErr, "line %q", line)
	}
}

func TestTrimTerminator(t *testing.T) {
	assert.Equal(t, "OK", TrimTerminator("OK\r\n"))
	assert.Equal(t, "OK", TrimTerminator("OK\n"))
	assert.Equal(t, "OK", TrimTerminator("OK"))
	assert.Equal(t, "OK\r", TrimTerminator("OK\r"))
}
