package sonic

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/pior/sonic/proto"
)

// IngestChannel adds and removes indexed text.
type IngestChannel struct {
	*channel
}

// StartIngest connects to config.Addr and opens an ingest session.
func StartIngest(ctx context.Context, config Config) (*IngestChannel, error) {
	ch, err := start(ctx, ModeIngest, config)
	if err != nil {
		return nil, err
	}
	return &IngestChannel{channel: ch}, nil
}

// PushRequest holds the arguments of PUSH.
type PushRequest struct {
	Collection string
	Bucket     string
	Object     string
	Text       string

	// Lang is an ISO 639-3 locale, or "none". Empty lets the server detect it.
	Lang string
}

// Push indexes text for an object.
func (c *IngestChannel) Push(ctx context.Context, collection, bucket, object, text string) error {
	return c.PushWith(ctx, PushRequest{Collection: collection, Bucket: bucket, Object: object, Text: text})
}

// PushWith is Push with a locale.
//
// Text whose line would exceed the server buffer is sent as several PUSH
// commands, split at whitespace. The first failing chunk aborts the push;
// chunks already sent stay indexed.
func (c *IngestChannel) PushWith(ctx context.Context, req PushRequest) error {
	cmd := &command{
		kind:       cmdPush,
		collection: req.Collection,
		bucket:     req.Bucket,
		object:     req.Object,
		text:       req.Text,
		lang:       req.Lang,
	}

	chunks, err := c.chunks(cmd)
	if err != nil {
		return err
	}
	for _, chunk := range chunks {
		chunkCmd := *cmd
		chunkCmd.text = chunk
		if _, err := c.run(ctx, &chunkCmd); err != nil {
			return err
		}
	}
	return nil
}

// Pop removes text from an object and returns the number of words removed.
// Long text is split like in PushWith and the counts are summed.
func (c *IngestChannel) Pop(ctx context.Context, collection, bucket, object, text string) (int, error) {
	cmd := &command{
		kind:       cmdPop,
		collection: collection,
		bucket:     bucket,
		object:     object,
		text:       text,
	}

	chunks, err := c.chunks(cmd)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, chunk := range chunks {
		chunkCmd := *cmd
		chunkCmd.text = chunk
		resp, err := c.run(ctx, &chunkCmd)
		if err != nil {
			return total, err
		}
		total += resp.count
	}
	return total, nil
}

// Count returns the number of buckets in a collection, of objects in a
// bucket, or of words in an object. Empty bucket and object are omitted.
func (c *IngestChannel) Count(ctx context.Context, collection, bucket, object string) (int, error) {
	resp, err := c.run(ctx, &command{kind: cmdCount, collection: collection, bucket: bucket, object: object})
	return resp.count, err
}

// FlushCollection erases a collection and returns the number of buckets flushed.
func (c *IngestChannel) FlushCollection(ctx context.Context, collection string) (int, error) {
	resp, err := c.run(ctx, &command{kind: cmdFlushCollection, collection: collection})
	return resp.count, err
}

// FlushBucket erases a bucket and returns the number of objects flushed.
func (c *IngestChannel) FlushBucket(ctx context.Context, collection, bucket string) (int, error) {
	resp, err := c.run(ctx, &command{kind: cmdFlushBucket, collection: collection, bucket: bucket})
	return resp.count, err
}

// FlushObject erases an object and returns the number of words flushed.
func (c *IngestChannel) FlushObject(ctx context.Context, collection, bucket, object string) (int, error) {
	resp, err := c.run(ctx, &command{kind: cmdFlushObject, collection: collection, bucket: bucket, object: object})
	return resp.count, err
}

// chunks returns cmd.text as one piece when the line fits the negotiated
// buffer, or split into pieces that each produce a fitting line.
func (c *IngestChannel) chunks(cmd *command) ([]string, error) {
	req, err := cmd.request()
	if err != nil {
		return nil, err
	}
	lineLen, err := proto.EncodedLen(req)
	if err != nil {
		return nil, err
	}

	limit := c.BufferSize()
	if limit <= 0 || lineLen <= limit {
		return []string{cmd.text}, nil
	}

	overhead := lineLen - proto.QuotedLen(cmd.text)
	budget := limit - overhead - proto.QuotedLen("")
	if budget < utf8.UTFMax {
		return nil, &proto.EncodingError{Message: "command arguments leave no room for text within the server buffer"}
	}
	return splitText(cmd.text, budget), nil
}

// splitText cuts text into chunks whose escaped length is at most budget.
// Chunks break at whitespace, and inside words longer than budget at rune
// boundaries. Runs of whitespace collapse to single spaces.
func splitText(text string, budget int) []string {
	var (
		chunks []string
		cur    strings.Builder
		curLen int
	)

	flush := func() {
		if cur.Len() > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, word := range strings.Fields(text) {
		wordLen := escapedLen(word)

		switch {
		case wordLen > budget:
			flush()
			chunks = append(chunks, splitWord(word, budget)...)
		case curLen == 0:
			cur.WriteString(word)
			curLen = wordLen
		case curLen+1+wordLen <= budget:
			cur.WriteByte(' ')
			cur.WriteString(word)
			curLen += 1 + wordLen
		default:
			flush()
			cur.WriteString(word)
			curLen = wordLen
		}
	}
	flush()
	return chunks
}

func splitWord(word string, budget int) []string {
	var pieces []string
	start, n := 0, 0
	for i, r := range word {
		size := escapedLen(string(r))
		if n+size > budget {
			pieces = append(pieces, word[start:i])
			start, n = i, 0
		}
		n += size
	}
	return append(pieces, word[start:])
}

func escapedLen(s string) int {
	return proto.QuotedLen(s) - 2
}
