package proto

// CmdType is a protocol command verb.
type CmdType string

// ReplyType classifies a line received from the server.
type ReplyType string

// Protocol delimiters
const (
	// CRLF is the line terminator for the Sonic protocol
	CRLF = "\r\n"

	// Space separates command tokens
	Space = " "
)

// Commands
//
// Each mode accepts a subset. Modes are enforced by the channel, not here.
const (
	// CmdStart opens a session in a mode.
	//
	// Wire format: START <mode> [<password>]\r\n
	// Reply: STARTED <mode> protocol(<version>) buffer(<size>)
	CmdStart CmdType = "START"

	// CmdPing checks liveness. Reply: PONG
	CmdPing CmdType = "PING"

	// CmdQuit ends the session. Reply: ENDED <reason>
	CmdQuit CmdType = "QUIT"

	// CmdHelp lists available manuals. Reply: RESULT <manuals...>
	CmdHelp CmdType = "HELP"

	// CmdQuery searches a bucket for terms.
	//
	// Wire format: QUERY <collection> <bucket> "<terms>" [LIMIT(<n>)] [OFFSET(<n>)] [LANG(<locale>)]\r\n
	// Reply: PENDING <id>, then EVENT QUERY <id> <objects...>
	CmdQuery CmdType = "QUERY"

	// CmdSuggest completes a word.
	//
	// Wire format: SUGGEST <collection> <bucket> "<word>" [LIMIT(<n>)]\r\n
	// Reply: PENDING <id>, then EVENT SUGGEST <id> <words...>
	CmdSuggest CmdType = "SUGGEST"

	// CmdList enumerates the words of a bucket.
	//
	// Wire format: LIST <collection> <bucket> [LIMIT(<n>)] [OFFSET(<n>)]\r\n
	// Reply: PENDING <id>, then EVENT LIST <id> <words...>
	CmdList CmdType = "LIST"

	// CmdPush indexes text for an object.
	//
	// Wire format: PUSH <collection> <bucket> <object> "<text>" [LANG(<locale>)]\r\n
	// Reply: OK
	CmdPush CmdType = "PUSH"

	// CmdPop removes text from an object. Reply: RESULT <count>
	CmdPop CmdType = "POP"

	// CmdCount counts indexed items. Reply: RESULT <count>
	CmdCount CmdType = "COUNT"

	// CmdFlushCollection, CmdFlushBucket and CmdFlushObject erase data.
	// Reply: RESULT <count>
	CmdFlushCollection CmdType = "FLUSHC"
	CmdFlushBucket     CmdType = "FLUSHB"
	CmdFlushObject     CmdType = "FLUSHO"

	// CmdTrigger runs a server action: consolidate, backup <path>, restore <path>.
	// Reply: OK
	CmdTrigger CmdType = "TRIGGER"

	// CmdInfo returns server statistics. Reply: RESULT <key>(<value>)...
	CmdInfo CmdType = "INFO"
)

// Replies
const (
	ReplyConnected ReplyType = "CONNECTED"
	ReplyStarted   ReplyType = "STARTED"
	ReplyOK        ReplyType = "OK"
	ReplyPong      ReplyType = "PONG"
	ReplyEnded     ReplyType = "ENDED"
	ReplyPending   ReplyType = "PENDING"
	ReplyEvent     ReplyType = "EVENT"
	ReplyResult    ReplyType = "RESULT"
	ReplyErr       ReplyType = "ERR"

	// ReplyUnknown is assigned to lines that match no known reply shape,
	// including lines not terminated by CRLF.
	ReplyUnknown ReplyType = ""
)

// Trigger actions
const (
	ActionConsolidate = "consolidate"
	ActionBackup      = "backup"
	ActionRestore     = "restore"
)

// Limits
const (
	// DefaultMaxLineSize bounds reads before the server announces its buffer size.
	DefaultMaxLineSize = 20000

	// MinMaxLineSize is the smallest read bound accepted from a STARTED reply.
	MinMaxLineSize = 512
)
