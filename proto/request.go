package proto

import "strconv"

// Arg is a single command argument.
type Arg struct {
	Value string

	// Quoted forces double quotes around Value. Text arguments (search terms,
	// pushed text) are always quoted; bare arguments are quoted only when their
	// content requires it.
	Quoted bool
}

// Bare returns an argument written as-is when possible.
func Bare(value string) Arg {
	return Arg{Value: value}
}

// Text returns an argument that is always quoted.
func Text(value string) Arg {
	return Arg{Value: value, Quoted: true}
}

// Modifier returns a NAME(value) argument such as LIMIT(10) or LANG(eng).
func Modifier(name, value string) Arg {
	return Arg{Value: name + "(" + value + ")"}
}

// IntModifier is Modifier with an integer value.
func IntModifier(name string, value int) Arg {
	return Modifier(name, strconv.Itoa(value))
}

// Request is one outgoing protocol line.
// It is a plain container; serialization lives in Encode.
type Request struct {
	Command CmdType
	Args    []Arg
}

// NewRequest creates a request for cmd.
func NewRequest(cmd CmdType, args ...Arg) *Request {
	return &Request{Command: cmd, Args: args}
}

// Add appends arguments and returns the request for chaining.
func (r *Request) Add(args ...Arg) *Request {
	r.Args = append(r.Args, args...)
	return r
}

// Tokens returns the command followed by argument values, the shape Tokenize
// yields for an encoded request.
func (r *Request) Tokens() []string {
	tokens := make([]string, 0, len(r.Args)+1)
	tokens = append(tokens, string(r.Command))
	for _, a := range r.Args {
		tokens = append(tokens, a.Value)
	}
	return tokens
}
