// sonic-index pushes every line of a text file as one object.
//
// Object ids are derived from the line content, so indexing the same file
// twice produces the same objects. After a connection failure the channel is
// reopened through a circuit breaker, which stops the run when the server
// stays unreachable.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/pior/sonic"
	"github.com/pior/sonic/internal/config"
	"github.com/pior/sonic/proto"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/zeebo/xxh3"
)

type indexer struct {
	cfg        sonic.Config
	collection string
	bucket     string
	lang       string
	prefix     string
	logger     *zerolog.Logger

	ch   *sonic.IngestChannel
	seen map[uint64]struct{}

	pushed  int
	skipped int
}

func main() {
	var (
		configPath = flag.String("config", "", "TOML config file")
		addr       = flag.String("addr", "", "server address (overrides config)")
		collection = flag.String("collection", "", "target collection (required)")
		bucket     = flag.String("bucket", "default", "target bucket")
		lang       = flag.String("lang", "", "ISO 639-3 locale of the text")
		prefix     = flag.String("prefix", "line:", "object id prefix")
		flush      = flag.Bool("flush", false, "flush the bucket before indexing")
	)
	flag.Parse()

	if *collection == "" || flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: sonic-index -collection <name> [flags] <file|->")
		os.Exit(2)
	}

	settings, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		settings.Addr = *addr
	}
	logger := settings.NewLogger()

	cfg := settings.Channel(logger)
	cfg.Dial = sonic.NewCircuitBreakerDial(settings.Addr, 1, time.Minute, 30*time.Second)

	idx := &indexer{
		cfg:        cfg,
		collection: *collection,
		bucket:     *bucket,
		lang:       *lang,
		prefix:     *prefix,
		logger:     logger,
		seen:       make(map[uint64]struct{}),
	}

	if err := idx.run(flag.Arg(0), *flush); err != nil {
		logger.Error().Err(err).Int("pushed", idx.pushed).Msg("indexing failed")
		os.Exit(1)
	}
	logger.Info().Int("pushed", idx.pushed).Int("duplicates", idx.skipped).Msg("indexing done")
}

func (idx *indexer) run(path string, flush bool) error {
	in, err := openInput(path)
	if err != nil {
		return err
	}
	defer in.Close()

	ctx := context.Background()
	if err := idx.reconnect(ctx); err != nil {
		return err
	}
	defer func() { _ = idx.ch.Quit(ctx) }()

	if flush {
		n, err := idx.ch.FlushBucket(ctx, idx.collection, idx.bucket)
		if err != nil {
			return errors.Wrap(err, "flush bucket")
		}
		idx.logger.Info().Int("objects", n).Msg("bucket flushed")
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := idx.push(ctx, line); err != nil {
			return err
		}
	}
	return errors.Wrap(scanner.Err(), "read input")
}

// push indexes one line, reopening the channel once after a connection
// failure.
func (idx *indexer) push(ctx context.Context, line string) error {
	hash := objectHash(line)
	if _, dup := idx.seen[hash]; dup {
		idx.skipped++
		return nil
	}

	req := sonic.PushRequest{
		Collection: idx.collection,
		Bucket:     idx.bucket,
		Object:     objectID(idx.prefix, hash),
		Text:       line,
		Lang:       idx.lang,
	}

	err := idx.ch.PushWith(ctx, req)
	if proto.KindOf(err) == proto.KindConnection {
		idx.logger.Warn().Err(err).Msg("connection lost, reopening channel")
		if err := idx.reconnect(ctx); err != nil {
			return err
		}
		err = idx.ch.PushWith(ctx, req)
	}
	if err != nil {
		return errors.Wrapf(err, "push %s", req.Object)
	}

	idx.seen[hash] = struct{}{}
	idx.pushed++
	return nil
}

func objectHash(line string) uint64 {
	return xxh3.HashString(line)
}

// objectID is stable across runs for the same line and prefix.
func objectID(prefix string, hash uint64) string {
	return prefix + strconv.FormatUint(hash, 16)
}

func (idx *indexer) reconnect(ctx context.Context) error {
	if idx.ch != nil {
		_ = idx.ch.Close()
	}
	ch, err := sonic.StartIngest(ctx, idx.cfg)
	if err != nil {
		return errors.Wrapf(err, "start ingest channel on %s", idx.cfg.Addr)
	}
	idx.ch = ch
	return nil
}

// openInput opens path, "-" meaning stdin. Files ending in .zst are
// decompressed on the fly.
func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open input")
	}
	if !strings.HasSuffix(path, ".zst") {
		return f, nil
	}

	dec, err := zstd.NewReader(f, zstd.WithDecoderConcurrency(1))
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrap(err, "open zstd input")
	}
	return &zstdFile{Decoder: dec, file: f}, nil
}

type zstdFile struct {
	*zstd.Decoder
	file *os.File
}

func (z *zstdFile) Close() error {
	z.Decoder.Close()
	return z.file.Close()
}
