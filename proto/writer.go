package proto

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"sync"
	"unicode/utf8"
)

// Buffer pool for building request lines
var bufferPool = sync.Pool{
	New: func() any {
		// Typical command is well under 256 bytes; PUSH text can be larger
		return bytes.NewBuffer(make([]byte, 0, 256))
	},
}

func getBuffer() *bytes.Buffer {
	return bufferPool.Get().(*bytes.Buffer)
}

func putBuffer(buf *bytes.Buffer) {
	// Don't keep buffers grown by oversized PUSH lines
	if buf.Cap() > 64*1024 {
		return
	}
	buf.Reset()
	bufferPool.Put(buf)
}

// quoteTriggers are the bytes forcing a bare argument into quotes.
const quoteTriggers = " \t\r\n\v\f\"\\"

// ValidateArg checks that value can be written on the wire.
func ValidateArg(value string) error {
	if !utf8.ValidString(value) {
		return &EncodingError{Message: "argument is not valid UTF-8"}
	}
	if strings.IndexByte(value, 0) >= 0 {
		return &EncodingError{Message: "argument contains a NUL byte"}
	}
	return nil
}

// Encode serializes req to a single CRLF-terminated line.
// Format: <command> <arg>*\r\n
//
// Quoted spans escape backslash, double quote, LF and CR so that the result
// holds exactly one terminator.
func Encode(req *Request) ([]byte, error) {
	buf := getBuffer()
	defer putBuffer(buf)

	if err := encodeTo(buf, req); err != nil {
		return nil, err
	}
	return bytes.Clone(buf.Bytes()), nil
}

// EncodedLen returns the length of the encoded line, terminator included.
func EncodedLen(req *Request) (int, error) {
	buf := getBuffer()
	defer putBuffer(buf)

	if err := encodeTo(buf, req); err != nil {
		return 0, err
	}
	return buf.Len(), nil
}

// WriteRequest encodes req and writes it to w. A bufio.Writer is flushed.
// Nothing is written when encoding fails.
func WriteRequest(w io.Writer, req *Request) (int, error) {
	buf := getBuffer()
	defer putBuffer(buf)

	if err := encodeTo(buf, req); err != nil {
		return 0, err
	}

	n, err := w.Write(buf.Bytes())
	if err != nil {
		return n, err
	}
	if bw, ok := w.(*bufio.Writer); ok {
		return n, bw.Flush()
	}
	return n, nil
}

func encodeTo(buf *bytes.Buffer, req *Request) error {
	if req.Command == "" {
		return &EncodingError{Message: "empty command"}
	}

	buf.WriteString(string(req.Command))
	for _, arg := range req.Args {
		if err := ValidateArg(arg.Value); err != nil {
			return err
		}
		buf.WriteString(Space)
		if arg.Quoted || arg.Value == "" || strings.ContainsAny(arg.Value, quoteTriggers) {
			writeQuoted(buf, arg.Value)
		} else {
			buf.WriteString(arg.Value)
		}
	}
	buf.WriteString(CRLF)
	return nil
}

func writeQuoted(buf *bytes.Buffer, value string) {
	buf.WriteByte('"')
	for i := 0; i < len(value); i++ {
		switch c := value[i]; c {
		case '\\':
			buf.WriteString(`\\`)
		case '"':
			buf.WriteString(`\"`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		default:
			buf.WriteByte(c)
		}
	}
	buf.WriteByte('"')
}

// QuotedLen returns the encoded length of value as a quoted argument,
// quotes included.
func QuotedLen(value string) int {
	n := 2
	for i := 0; i < len(value); i++ {
		switch value[i] {
		case '\\', '"', '\n', '\r':
			n += 2
		default:
			n++
		}
	}
	return n
}
