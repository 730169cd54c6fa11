package sonic

import (
	"context"
	"strings"
	"testing"

	"github.com/pior/sonic/internal/testutils"
	"github.com/pior/sonic/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPush(t *testing.T) {
	ch, mock := startIngestMock(t, "OK\r\n", "OK\r\n")

	require.NoError(t, ch.Push(context.Background(), "messages", "default", "conversation:1", "Hello world"))
	require.NoError(t, ch.PushWith(context.Background(), PushRequest{
		Collection: "messages",
		Bucket:     "default",
		Object:     "conversation:2",
		Text:       "Bonjour le monde",
		Lang:       "fra",
	}))

	assert.Equal(t, []string{
		"PUSH messages default conversation:1 \"Hello world\"\r\n",
		"PUSH messages default conversation:2 \"Bonjour le monde\" LANG(fra)\r\n",
	}, mock.WrittenLines(1))
}

func TestPush_Errors(t *testing.T) {
	ch, _ := startIngestMock(t, "ERR invalid_format(PUSH)\r\n", "RESULT 1\r\n")

	err := ch.Push(context.Background(), "c", "b", "o", "text")
	var remErr *proto.RemoteError
	require.ErrorAs(t, err, &remErr)
	assert.Equal(t, "invalid_format(PUSH)", remErr.Message)

	err = ch.Push(context.Background(), "c", "b", "o", "text")
	assert.Equal(t, proto.KindWrongResponse, proto.KindOf(err))
	assert.Equal(t, StateReady, ch.State())
}

func TestPush_InvalidArguments(t *testing.T) {
	tests := []struct {
		name string
		req  PushRequest
	}{
		{"empty text", PushRequest{Collection: "c", Bucket: "b", Object: "o"}},
		{"whitespace text", PushRequest{Collection: "c", Bucket: "b", Object: "o", Text: " \t\n"}},
		{"missing object", PushRequest{Collection: "c", Bucket: "b", Text: "x"}},
		{"quote in bucket", PushRequest{Collection: "c", Bucket: `b"`, Object: "o", Text: "x"}},
		{"backslash in object", PushRequest{Collection: "c", Bucket: "b", Object: `o\1`, Text: "x"}},
		{"uppercase lang", PushRequest{Collection: "c", Bucket: "b", Object: "o", Text: "x", Lang: "ENG"}},
		{"nul in text", PushRequest{Collection: "c", Bucket: "b", Object: "o", Text: "a\x00b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch, mock := startIngestMock(t)

			err := ch.PushWith(context.Background(), tt.req)
			assert.Equal(t, proto.KindEncoding, proto.KindOf(err), "error: %v", err)
			assert.Empty(t, mock.WrittenLines(1))
		})
	}
}

func TestPush_Chunked(t *testing.T) {
	mock := testutils.NewConnectionMock(
		"CONNECTED <sonic-server v1.4.9>\r\n",
		"STARTED ingest protocol(1) buffer(64)\r\n",
		"OK\r\n", "OK\r\n", "OK\r\n",
	)
	ch, err := StartIngest(context.Background(), mockConfig(mock))
	require.NoError(t, err)
	require.Equal(t, 64, ch.BufferSize())

	words := make([]string, 20)
	for i := range words {
		words[i] = "word" + string(rune('a'+i)) + "x"
	}
	text := strings.Join(words, " ")

	require.NoError(t, ch.Push(context.Background(), "c", "b", "o", text))

	lines := mock.WrittenLines(1)
	require.Len(t, lines, 3)

	var pushed []string
	for _, line := range lines {
		assert.LessOrEqual(t, len(line), 64, "line %q", line)
		assert.True(t, strings.HasPrefix(line, "PUSH c b o \""), "line %q", line)

		tokens, err := proto.Tokenize(line)
		require.NoError(t, err)
		require.Len(t, tokens, 5)
		pushed = append(pushed, strings.Fields(tokens[4])...)
	}
	assert.Equal(t, words, pushed)
}

func TestPush_ChunkedStopsOnError(t *testing.T) {
	mock := testutils.NewConnectionMock(
		"CONNECTED <sonic-server v1.4.9>\r\n",
		"STARTED ingest protocol(1) buffer(64)\r\n",
		"OK\r\n", "ERR nope\r\n", "OK\r\n",
	)
	ch, err := StartIngest(context.Background(), mockConfig(mock))
	require.NoError(t, err)

	text := strings.Repeat("abcdef ", 20)
	err = ch.Push(context.Background(), "c", "b", "o", text)
	assert.Equal(t, proto.KindRemote, proto.KindOf(err))
	assert.Len(t, mock.WrittenLines(1), 2)
}

func TestPush_NoRoomForText(t *testing.T) {
	mock := testutils.NewConnectionMock(
		"CONNECTED <sonic-server v1.4.9>\r\n",
		"STARTED ingest protocol(1) buffer(20)\r\n",
	)
	ch, err := StartIngest(context.Background(), mockConfig(mock))
	require.NoError(t, err)

	err = ch.Push(context.Background(), "collection", "bucket", "object", "some text here")
	assert.Equal(t, proto.KindEncoding, proto.KindOf(err))
	assert.Empty(t, mock.WrittenLines(1))
}

func TestPop(t *testing.T) {
	ch, mock := startIngestMock(t, "RESULT 2\r\n")

	n, err := ch.Pop(context.Background(), "messages", "default", "conversation:1", "Hello world")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"POP messages default conversation:1 \"Hello world\"\r\n"}, mock.WrittenLines(1))
}

func TestPop_ChunkedSumsCounts(t *testing.T) {
	mock := testutils.NewConnectionMock(
		"CONNECTED <sonic-server v1.4.9>\r\n",
		"STARTED ingest protocol(1) buffer(64)\r\n",
		"RESULT 7\r\n", "RESULT 7\r\n", "RESULT 6\r\n",
	)
	ch, err := StartIngest(context.Background(), mockConfig(mock))
	require.NoError(t, err)

	n, err := ch.Pop(context.Background(), "c", "b", "o", strings.Repeat("abcdef ", 20))
	require.NoError(t, err)
	assert.Equal(t, 20, n)
	assert.Len(t, mock.WrittenLines(1), 3)
}

func TestCount(t *testing.T) {
	tests := []struct {
		name       string
		collection string
		bucket     string
		object     string
		expected   string
	}{
		{"collection", "messages", "", "", "COUNT messages\r\n"},
		{"bucket", "messages", "default", "", "COUNT messages default\r\n"},
		{"object", "messages", "default", "conversation:1", "COUNT messages default conversation:1\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch, mock := startIngestMock(t, "RESULT 12\r\n")

			n, err := ch.Count(context.Background(), tt.collection, tt.bucket, tt.object)
			require.NoError(t, err)
			assert.Equal(t, 12, n)
			assert.Equal(t, []string{tt.expected}, mock.WrittenLines(1))
		})
	}
}

func TestCount_ObjectWithoutBucket(t *testing.T) {
	ch, mock := startIngestMock(t)

	_, err := ch.Count(context.Background(), "messages", "", "conversation:1")
	assert.Equal(t, proto.KindEncoding, proto.KindOf(err))
	assert.Empty(t, mock.WrittenLines(1))
}

func TestCount_MalformedResult(t *testing.T) {
	ch, _ := startIngestMock(t, "RESULT many\r\n")

	_, err := ch.Count(context.Background(), "messages", "", "")
	assert.Equal(t, proto.KindWrongResponse, proto.KindOf(err))
}

func TestFlush(t *testing.T) {
	ch, mock := startIngestMock(t, "RESULT 3\r\n", "RESULT 2\r\n", "RESULT 1\r\n")
	ctx := context.Background()

	n, err := ch.FlushCollection(ctx, "messages")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = ch.FlushBucket(ctx, "messages", "default")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = ch.FlushObject(ctx, "messages", "default", "conversation:1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Equal(t, []string{
		"FLUSHC messages\r\n",
		"FLUSHB messages default\r\n",
		"FLUSHO messages default conversation:1\r\n",
	}, mock.WrittenLines(1))
}

func TestSplitText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		budget   int
		expected []string
	}{
		{"fits", "hello world", 20, []string{"hello world"}},
		{"collapses whitespace", "  hello \n\t world  ", 20, []string{"hello world"}},
		{"splits at words", "aaa bbb ccc", 7, []string{"aaa bbb", "ccc"}},
		{"exact fit", "aaa bbb", 7, []string{"aaa bbb"}},
		{"long word", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"long word between short ones", "a abcdefgh b", 4, []string{"a", "abcd", "efgh", "b"}},
		{"escapes count", `a"b c`, 4, []string{`a"b`, "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, splitText(tt.text, tt.budget))
		})
	}
}

func TestSplitWord_RuneBoundaries(t *testing.T) {
	pieces := splitWord("ééééé", 4)
	assert.Equal(t, []string{"éé", "éé", "é"}, pieces)
}
