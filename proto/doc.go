// Package proto implements the wire format of the Sonic channel protocol.
//
// It covers line framing, argument quoting, reply classification and the
// error taxonomy, and holds no connection state. Higher-level channels in
// the parent package drive the handshake and command sequencing on top of it.
//
// # Serialization
//
// Encode turns a Request into one CRLF-terminated line:
//
//	req := proto.NewRequest(proto.CmdQuery,
//	    proto.Bare("messages"), proto.Bare("user:1"), proto.Text("hello world"),
//	    proto.IntModifier("LIMIT", 10))
//	line, err := proto.Encode(req)
//	// QUERY messages user:1 "hello world" LIMIT(10)\r\n
//
// Tokenize is its inverse, so Tokenize(Encode(req)) equals req.Tokens().
//
// # Reading
//
// ReadLine reads a bounded line, and ParseReply classifies it:
//
//	line, err := proto.ReadLine(r, proto.DefaultMaxLineSize)
//	if err != nil {
//	    return err // ConnectionError or ProtocolError
//	}
//	reply, err := proto.ParseReply(line)
//
// # Error Handling
//
// All errors are one of ConnectionError, ProtocolError, AuthenticationError,
// WrongResponseError, EncodingError or RemoteError. ShouldCloseConnection
// tells whether the connection survived; KindOf maps an error to its
// ErrorKind.
package proto
