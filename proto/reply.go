package proto

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	startedPattern = regexp.MustCompile(`^STARTED ([a-z]+) protocol\((\d+)\) buffer\((\d+)\)$`)
	infoPattern    = regexp.MustCompile(`([a-z_]+)\(([^)]*)\)`)
)

// Reply is a parsed server line.
// Fields are populated according to Type; the others stay zero.
type Reply struct {
	Type ReplyType

	// Raw is the line as received, terminator included
	Raw string

	// Fields holds the tokens following the reply word
	// (RESULT values, EVENT payload after kind and id)
	Fields []string

	// ID is set for PENDING and EVENT
	ID string

	// Kind is the EVENT kind (QUERY, SUGGEST, LIST)
	Kind string

	// Message is the verbatim remainder for ERR, ENDED and CONNECTED
	Message string
}

// ParseReply classifies line. Lines that are not CRLF terminated or do not
// start with a known reply word get ReplyUnknown; the caller decides whether
// that is a wrong response or a protocol violation.
//
// An error is returned only when a known reply cannot be tokenized.
func ParseReply(line string) (*Reply, error) {
	reply := &Reply{Raw: line}

	body, ok := strings.CutSuffix(line, CRLF)
	if !ok {
		return reply, nil
	}

	word, rest, _ := strings.Cut(body, Space)

	switch t := ReplyType(word); t {
	case ReplyErr, ReplyEnded, ReplyConnected:
		reply.Type = t
		reply.Message = rest
		return reply, nil

	case ReplyOK, ReplyPong:
		if rest != "" {
			return reply, nil
		}
		reply.Type = t
		return reply, nil

	case ReplyStarted, ReplyResult, ReplyPending, ReplyEvent:
		fields, err := Tokenize(rest)
		if err != nil {
			return nil, err
		}
		reply.Fields = fields

	default:
		return reply, nil
	}

	switch ReplyType(word) {
	case ReplyPending:
		if len(reply.Fields) != 1 {
			return reply, nil
		}
		reply.ID = reply.Fields[0]
		reply.Fields = nil

	case ReplyEvent:
		if len(reply.Fields) < 2 {
			return reply, nil
		}
		reply.Kind = reply.Fields[0]
		reply.ID = reply.Fields[1]
		reply.Fields = reply.Fields[2:]
	}

	reply.Type = ReplyType(word)
	return reply, nil
}

// Started is the negotiated session from a STARTED reply.
type Started struct {
	Mode       string
	Protocol   int
	BufferSize int
}

// ParseStarted extracts mode, protocol version and buffer size.
// ok is false when line does not have the STARTED shape.
func ParseStarted(line string) (Started, bool) {
	m := startedPattern.FindStringSubmatch(TrimTerminator(line))
	if m == nil {
		return Started{}, false
	}

	protocol, err := strconv.Atoi(m[2])
	if err != nil {
		return Started{}, false
	}
	buffer, err := strconv.Atoi(m[3])
	if err != nil {
		return Started{}, false
	}

	return Started{Mode: m[1], Protocol: protocol, BufferSize: buffer}, true
}

// ParseCount returns the integer of a RESULT <n> reply.
func ParseCount(reply *Reply) (int, bool) {
	if reply.Type != ReplyResult || len(reply.Fields) != 1 {
		return 0, false
	}
	n, err := strconv.Atoi(reply.Fields[0])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// ParseInfo returns the key(value) pairs of an INFO result.
//
// Example reply:
//
//	RESULT uptime(3600) clients_connected(2) commands_total(42)
func ParseInfo(reply *Reply) (map[string]string, bool) {
	if reply.Type != ReplyResult {
		return nil, false
	}

	body := strings.TrimPrefix(TrimTerminator(reply.Raw), string(ReplyResult)+Space)
	matches := infoPattern.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		return nil, false
	}

	info := make(map[string]string, len(matches))
	for _, m := range matches {
		info[m[1]] = m[2]
	}
	return info, true
}
