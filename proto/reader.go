package proto

import (
	"bufio"
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ReadLine reads one line from r, terminator included.
//
// At most maxLen bytes are consumed looking for '\n'. A longer line is a
// ProtocolError, which guards against unbounded growth from a misbehaving
// peer. I/O failures, including deadline expiry, are returned as
// ConnectionError.
//
// The terminator is kept so callers can insist on CRLF: "PONG\n" and
// "PONG\r\n" are different replies.
func ReadLine(r *bufio.Reader, maxLen int) (string, error) {
	if maxLen <= 0 {
		maxLen = DefaultMaxLineSize
	}

	// Fast path: the whole line sits in the reader's buffer
	line, err := r.ReadSlice('\n')
	if err == nil {
		if len(line) > maxLen {
			return "", lineTooLong(maxLen)
		}
		return checkUTF8(line)
	}
	if !errors.Is(err, bufio.ErrBufferFull) {
		return "", &ConnectionError{Op: "read", Err: err}
	}

	// Slow path: accumulate fragments up to maxLen
	acc := make([]byte, 0, 2*len(line))
	for {
		acc = append(acc, line...)
		if len(acc) > maxLen {
			return "", lineTooLong(maxLen)
		}
		if err == nil {
			return checkUTF8(acc)
		}
		if !errors.Is(err, bufio.ErrBufferFull) {
			return "", &ConnectionError{Op: "read", Err: err}
		}
		line, err = r.ReadSlice('\n')
	}
}

func lineTooLong(maxLen int) error {
	return &ProtocolError{Message: "no line terminator within " + strconv.Itoa(maxLen) + " bytes"}
}

func checkUTF8(line []byte) (string, error) {
	if !utf8.Valid(line) {
		return "", &ProtocolError{Message: "line is not valid UTF-8"}
	}
	return string(line), nil
}

// TrimTerminator removes a trailing CRLF, or a lone LF.
func TrimTerminator(line string) string {
	if s, ok := strings.CutSuffix(line, CRLF); ok {
		return s
	}
	return strings.TrimSuffix(line, "\n")
}

// Tokenize splits a line into tokens, the inverse of Encode.
//
// Tokens are separated by runs of spaces. Double quotes group a token and
// may contain spaces; inside quotes \\, \", \n and \r are unescaped. Any
// other escape is kept literally.
func Tokenize(line string) ([]string, error) {
	line = TrimTerminator(line)

	var (
		tokens  []string
		cur     strings.Builder
		inToken bool
		quoted  bool
	)

	for i := 0; i < len(line); i++ {
		c := line[i]

		if quoted {
			switch c {
			case '"':
				quoted = false
			case '\\':
				if i+1 >= len(line) {
					return nil, &ProtocolError{Message: "dangling escape in quoted token"}
				}
				i++
				switch e := line[i]; e {
				case '\\', '"':
					cur.WriteByte(e)
				case 'n':
					cur.WriteByte('\n')
				case 'r':
					cur.WriteByte('\r')
				default:
					cur.WriteByte('\\')
					cur.WriteByte(e)
				}
			default:
				cur.WriteByte(c)
			}
			continue
		}

		switch c {
		case ' ':
			if inToken {
				tokens = append(tokens, cur.String())
				cur.Reset()
				inToken = false
			}
		case '"':
			inToken = true
			quoted = true
		default:
			inToken = true
			cur.WriteByte(c)
		}
	}

	if quoted {
		return nil, &ProtocolError{Message: "unterminated quoted token"}
	}
	if inToken {
		tokens = append(tokens, cur.String())
	}
	return tokens, nil
}
