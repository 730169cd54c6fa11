package sonic

import (
	"strings"

	"github.com/pior/sonic/proto"
)

// commandKind tags the variant of a command.
type commandKind int

const (
	cmdStart commandKind = iota
	cmdPing
	cmdQuit
	cmdHelp
	cmdQuery
	cmdSuggest
	cmdList
	cmdPush
	cmdPop
	cmdCount
	cmdFlushCollection
	cmdFlushBucket
	cmdFlushObject
	cmdTrigger
	cmdInfo
)

// command describes one protocol exchange. Only the fields of its kind are
// set. It is built per call and never reused.
type command struct {
	kind commandKind

	mode     Mode   // start
	password string // start
	manual   string // help

	collection string
	bucket     string
	object     string
	text       string // query terms, suggest word, push/pop text
	lang       string
	limit      int
	offset     int

	action string // trigger
	data   string // trigger
}

// response is the typed outcome of interpret. Which field is meaningful
// depends on the command kind.
type response struct {
	count   int
	items   []string
	info    map[string]string
	started proto.Started
}

// verb returns the wire command for the kind.
func (c *command) verb() proto.CmdType {
	switch c.kind {
	case cmdStart:
		return proto.CmdStart
	case cmdPing:
		return proto.CmdPing
	case cmdQuit:
		return proto.CmdQuit
	case cmdHelp:
		return proto.CmdHelp
	case cmdQuery:
		return proto.CmdQuery
	case cmdSuggest:
		return proto.CmdSuggest
	case cmdList:
		return proto.CmdList
	case cmdPush:
		return proto.CmdPush
	case cmdPop:
		return proto.CmdPop
	case cmdCount:
		return proto.CmdCount
	case cmdFlushCollection:
		return proto.CmdFlushCollection
	case cmdFlushBucket:
		return proto.CmdFlushBucket
	case cmdFlushObject:
		return proto.CmdFlushObject
	case cmdTrigger:
		return proto.CmdTrigger
	case cmdInfo:
		return proto.CmdInfo
	default:
		panic("sonic: unknown command kind")
	}
}

// allowedIn reports whether the command is part of mode's vocabulary.
func (c *command) allowedIn(mode Mode) bool {
	switch c.kind {
	case cmdStart, cmdPing, cmdQuit, cmdHelp:
		return true
	case cmdQuery, cmdSuggest, cmdList:
		return mode == ModeSearch
	case cmdPush, cmdPop, cmdCount, cmdFlushCollection, cmdFlushBucket, cmdFlushObject:
		return mode == ModeIngest
	case cmdTrigger, cmdInfo:
		return mode == ModeControl
	default:
		return false
	}
}

// eventKind returns the EVENT kind awaited after PENDING, for the commands
// whose payload is delivered asynchronously.
func (c *command) eventKind() (string, bool) {
	switch c.kind {
	case cmdQuery, cmdSuggest, cmdList:
		return string(c.verb()), true
	default:
		return "", false
	}
}

// request renders the outgoing line. Argument validation happens here so
// nothing is written for an invalid call.
func (c *command) request() (*proto.Request, error) {
	req := proto.NewRequest(c.verb())

	switch c.kind {
	case cmdStart:
		req.Add(proto.Bare(c.mode.String()))
		if c.password != "" {
			req.Add(proto.Bare(c.password))
		}

	case cmdPing, cmdQuit, cmdInfo:

	case cmdHelp:
		if c.manual != "" {
			if err := validateIdentifier("manual", c.manual); err != nil {
				return nil, err
			}
			req.Add(proto.Bare(c.manual))
		}

	case cmdQuery, cmdSuggest:
		if err := c.addIdentifiers(req, 2); err != nil {
			return nil, err
		}
		if strings.TrimSpace(c.text) == "" {
			return nil, &proto.EncodingError{Message: "search text is empty"}
		}
		req.Add(proto.Text(c.text))
		if err := c.addPaging(req, c.kind == cmdQuery); err != nil {
			return nil, err
		}
		if c.kind == cmdQuery {
			if err := c.addLang(req); err != nil {
				return nil, err
			}
		}

	case cmdList:
		if err := c.addIdentifiers(req, 2); err != nil {
			return nil, err
		}
		if err := c.addPaging(req, true); err != nil {
			return nil, err
		}

	case cmdPush, cmdPop:
		if err := c.addIdentifiers(req, 3); err != nil {
			return nil, err
		}
		if strings.TrimSpace(c.text) == "" {
			return nil, &proto.EncodingError{Message: "text is empty"}
		}
		req.Add(proto.Text(c.text))
		if c.kind == cmdPush {
			if err := c.addLang(req); err != nil {
				return nil, err
			}
		}

	case cmdCount:
		if c.object != "" && c.bucket == "" {
			return nil, &proto.EncodingError{Message: "object requires a bucket"}
		}
		n := 1
		if c.bucket != "" {
			n++
		}
		if c.object != "" {
			n++
		}
		if err := c.addIdentifiers(req, n); err != nil {
			return nil, err
		}

	case cmdFlushCollection:
		if err := c.addIdentifiers(req, 1); err != nil {
			return nil, err
		}

	case cmdFlushBucket:
		if err := c.addIdentifiers(req, 2); err != nil {
			return nil, err
		}

	case cmdFlushObject:
		if err := c.addIdentifiers(req, 3); err != nil {
			return nil, err
		}

	case cmdTrigger:
		if c.action == "" {
			if c.data != "" {
				return nil, &proto.EncodingError{Message: "trigger data requires an action"}
			}
			break
		}
		if err := validateIdentifier("action", c.action); err != nil {
			return nil, err
		}
		req.Add(proto.Bare(c.action))
		if c.data != "" {
			req.Add(proto.Bare(c.data))
		}
	}

	return req, nil
}

// addIdentifiers appends the first n of collection, bucket and object.
func (c *command) addIdentifiers(req *proto.Request, n int) error {
	ids := []struct{ name, value string }{
		{"collection", c.collection},
		{"bucket", c.bucket},
		{"object", c.object},
	}
	for _, id := range ids[:n] {
		if err := validateIdentifier(id.name, id.value); err != nil {
			return err
		}
		req.Add(proto.Bare(id.value))
	}
	return nil
}

func (c *command) addPaging(req *proto.Request, withOffset bool) error {
	if c.limit < 0 || c.offset < 0 {
		return &proto.EncodingError{Message: "limit and offset must not be negative"}
	}
	if c.limit > 0 {
		req.Add(proto.IntModifier("LIMIT", c.limit))
	}
	if c.offset > 0 {
		if !withOffset {
			return &proto.EncodingError{Message: "offset is not supported by " + string(c.verb())}
		}
		req.Add(proto.IntModifier("OFFSET", c.offset))
	}
	return nil
}

func (c *command) addLang(req *proto.Request) error {
	if c.lang == "" {
		return nil
	}
	if err := validateLang(c.lang); err != nil {
		return err
	}
	req.Add(proto.Modifier("LANG", c.lang))
	return nil
}

// interpret maps the immediate reply of a simple command, or the payload of
// an awaited event, to a response.
func (c *command) interpret(reply *proto.Reply) (response, error) {
	if reply.Type == proto.ReplyErr {
		if c.kind == cmdStart {
			return response{}, &proto.AuthenticationError{Message: reply.Message}
		}
		return response{}, &proto.RemoteError{Message: reply.Message}
	}

	wrong := &proto.WrongResponseError{Command: c.verb(), Line: reply.Raw}

	switch c.kind {
	case cmdStart:
		started, ok := proto.ParseStarted(reply.Raw)
		if reply.Type != proto.ReplyStarted || !ok || started.Mode != c.mode.String() {
			return response{}, wrong
		}
		return response{started: started}, nil

	case cmdPing:
		// Exact match: a bare LF or trailing text is another dialect
		if reply.Raw != string(proto.ReplyPong)+proto.CRLF {
			return response{}, wrong
		}
		return response{}, nil

	case cmdQuit:
		// The reason after ENDED is informational
		if !strings.HasPrefix(reply.Raw, string(proto.ReplyEnded)+proto.Space) {
			return response{}, wrong
		}
		return response{}, nil

	case cmdHelp:
		if reply.Type != proto.ReplyResult {
			return response{}, wrong
		}
		return response{items: reply.Fields}, nil

	case cmdQuery, cmdSuggest, cmdList:
		if reply.Type != proto.ReplyEvent {
			return response{}, wrong
		}
		items := reply.Fields
		if items == nil {
			items = []string{}
		}
		return response{items: items}, nil

	case cmdPush, cmdTrigger:
		if reply.Type != proto.ReplyOK {
			return response{}, wrong
		}
		return response{}, nil

	case cmdPop, cmdCount, cmdFlushCollection, cmdFlushBucket, cmdFlushObject:
		n, ok := proto.ParseCount(reply)
		if !ok {
			return response{}, wrong
		}
		return response{count: n}, nil

	case cmdInfo:
		info, ok := proto.ParseInfo(reply)
		if !ok {
			return response{}, wrong
		}
		return response{info: info}, nil

	default:
		return response{}, wrong
	}
}

// validateIdentifier rejects names the server would split or misread.
func validateIdentifier(name, value string) error {
	if value == "" {
		return &proto.EncodingError{Message: name + " is empty"}
	}
	if strings.ContainsAny(value, " \t\r\n\v\f\"\\") {
		return &proto.EncodingError{Message: name + " contains whitespace or quotes"}
	}
	return proto.ValidateArg(value)
}

// validateLang accepts ISO 639-3 codes and "none".
func validateLang(lang string) error {
	if lang == "none" {
		return nil
	}
	if len(lang) != 3 {
		return &proto.EncodingError{Message: "locale must be a 3-letter ISO 639-3 code"}
	}
	for i := 0; i < len(lang); i++ {
		if lang[i] < 'a' || lang[i] > 'z' {
			return &proto.EncodingError{Message: "locale must be a 3-letter ISO 639-3 code"}
		}
	}
	return nil
}
