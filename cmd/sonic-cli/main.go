package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pior/sonic"
	"github.com/pior/sonic/internal/config"
	"github.com/pior/sonic/proto"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// channel is the part shared by all modes.
type channel interface {
	Ping(ctx context.Context) error
	Help(ctx context.Context, manual string) ([]string, error)
	Quit(ctx context.Context) error
	Close() error
	Stats() sonic.ChannelStats
	ServerInfo() string
	BufferSize() int
}

type cli struct {
	settings config.Settings
	common   channel
	search   *sonic.SearchChannel
	ingest   *sonic.IngestChannel
	control  *sonic.ControlChannel
}

func main() {
	var (
		configPath = flag.String("config", "", "TOML config file")
		addr       = flag.String("addr", "", "server address (overrides config)")
		mode       = flag.String("mode", "", "channel mode: search, ingest or control (overrides config)")
		verbose    = flag.Bool("v", false, "log protocol lines")
	)
	flag.Parse()

	settings, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		settings.Addr = *addr
	}
	if *mode != "" {
		m, err := sonic.ParseMode(*mode)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		settings.Mode = m
	}
	if *verbose {
		settings.LogLevel = zerolog.TraceLevel
	}

	c, err := connect(settings)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer c.common.Close()

	fmt.Printf("Sonic CLI (%s mode) connected to %s %s\n", settings.Mode, settings.Addr, c.common.ServerInfo())
	fmt.Println("Type 'help' for available commands.")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if done := c.handle(line); done {
			return
		}
	}

	if err := scanner.Err(); err != nil {
		fmt.Printf("Error reading input: %v\n", err)
	}
}

func connect(settings config.Settings) (*cli, error) {
	ctx, cancel := context.WithTimeout(context.Background(), settings.DialTimeout+5*time.Second)
	defer cancel()

	cfg := settings.Channel(settings.NewLogger())
	c := &cli{settings: settings}

	var err error
	switch settings.Mode {
	case sonic.ModeSearch:
		c.search, err = sonic.StartSearch(ctx, cfg)
		c.common = c.search
	case sonic.ModeIngest:
		c.ingest, err = sonic.StartIngest(ctx, cfg)
		c.common = c.ingest
	case sonic.ModeControl:
		c.control, err = sonic.StartControl(ctx, cfg)
		c.common = c.control
	}
	if err != nil {
		return nil, errors.Wrapf(err, "start %s channel on %s", settings.Mode, settings.Addr)
	}
	return c, nil
}

func (c *cli) context() (context.Context, context.CancelFunc) {
	if c.settings.Timeout > 0 {
		return context.WithTimeout(context.Background(), c.settings.Timeout)
	}
	return context.WithCancel(context.Background())
}

// handle runs one input line and reports whether the session ended.
func (c *cli) handle(line string) bool {
	command, rest, _ := strings.Cut(line, " ")
	command = strings.ToLower(command)
	args := strings.Fields(rest)

	ctx, cancel := c.context()
	defer cancel()
	start := time.Now()

	var (
		out any
		err error
	)

	switch command {
	case "ping":
		err = c.common.Ping(ctx)
		out = "PONG"

	case "help":
		c.printHelp()
		return false

	case "manual":
		manual := ""
		if len(args) > 0 {
			manual = args[0]
		}
		out, err = c.common.Help(ctx, manual)

	case "stats":
		fmt.Printf("%+v\n", c.common.Stats())
		return false

	case "quit", "exit":
		if err := c.common.Quit(ctx); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
		fmt.Println("Goodbye!")
		return true

	default:
		var handled bool
		out, handled, err = c.handleMode(ctx, command, args)
		if !handled {
			fmt.Printf("Unknown command: %s. Type 'help' for available commands.\n", command)
			return false
		}
	}

	duration := time.Since(start)
	if err != nil {
		fmt.Printf("Error (%s): %v (took %v)\n", proto.KindOf(err), err, duration)
		return false
	}
	fmt.Printf("%v (took %v)\n", out, duration)
	return false
}

func (c *cli) handleMode(ctx context.Context, command string, args []string) (any, bool, error) {
	switch {
	case c.search != nil:
		return c.handleSearch(ctx, command, args)
	case c.ingest != nil:
		return c.handleIngest(ctx, command, args)
	case c.control != nil:
		return c.handleControl(ctx, command, args)
	}
	return nil, false, nil
}

func (c *cli) handleSearch(ctx context.Context, command string, args []string) (any, bool, error) {
	switch command {
	case "query":
		if len(args) < 3 {
			return nil, true, usage("query <collection> <bucket> <terms...>")
		}
		res, err := c.search.Query(ctx, args[0], args[1], strings.Join(args[2:], " "))
		return res, true, err
	case "suggest":
		if len(args) != 3 {
			return nil, true, usage("suggest <collection> <bucket> <word>")
		}
		res, err := c.search.Suggest(ctx, args[0], args[1], args[2])
		return res, true, err
	case "list":
		if len(args) < 2 || len(args) > 3 {
			return nil, true, usage("list <collection> <bucket> [limit]")
		}
		req := sonic.ListRequest{Collection: args[0], Bucket: args[1]}
		if len(args) == 3 {
			limit, err := strconv.Atoi(args[2])
			if err != nil {
				return nil, true, errors.Wrap(err, "invalid limit")
			}
			req.Limit = limit
		}
		res, err := c.search.List(ctx, req)
		return res, true, err
	}
	return nil, false, nil
}

func (c *cli) handleIngest(ctx context.Context, command string, args []string) (any, bool, error) {
	switch command {
	case "push":
		if len(args) < 4 {
			return nil, true, usage("push <collection> <bucket> <object> <text...>")
		}
		err := c.ingest.Push(ctx, args[0], args[1], args[2], strings.Join(args[3:], " "))
		return "OK", true, err
	case "pop":
		if len(args) < 4 {
			return nil, true, usage("pop <collection> <bucket> <object> <text...>")
		}
		n, err := c.ingest.Pop(ctx, args[0], args[1], args[2], strings.Join(args[3:], " "))
		return n, true, err
	case "count":
		if len(args) < 1 || len(args) > 3 {
			return nil, true, usage("count <collection> [bucket [object]]")
		}
		padded := append(args, "", "")
		n, err := c.ingest.Count(ctx, padded[0], padded[1], padded[2])
		return n, true, err
	case "flushc":
		if len(args) != 1 {
			return nil, true, usage("flushc <collection>")
		}
		n, err := c.ingest.FlushCollection(ctx, args[0])
		return n, true, err
	case "flushb":
		if len(args) != 2 {
			return nil, true, usage("flushb <collection> <bucket>")
		}
		n, err := c.ingest.FlushBucket(ctx, args[0], args[1])
		return n, true, err
	case "flusho":
		if len(args) != 3 {
			return nil, true, usage("flusho <collection> <bucket> <object>")
		}
		n, err := c.ingest.FlushObject(ctx, args[0], args[1], args[2])
		return n, true, err
	}
	return nil, false, nil
}

func (c *cli) handleControl(ctx context.Context, command string, args []string) (any, bool, error) {
	switch command {
	case "consolidate":
		return "OK", true, c.control.Consolidate(ctx)
	case "backup":
		if len(args) != 1 {
			return nil, true, usage("backup <path>")
		}
		return "OK", true, c.control.Backup(ctx, args[0])
	case "restore":
		if len(args) != 1 {
			return nil, true, usage("restore <path>")
		}
		return "OK", true, c.control.Restore(ctx, args[0])
	case "info":
		info, err := c.control.Info(ctx)
		return info, true, err
	}
	return nil, false, nil
}

func usage(s string) error {
	return errors.New("usage: " + s)
}

func (c *cli) printHelp() {
	fmt.Println("Commands:")
	switch {
	case c.search != nil:
		fmt.Println("  query <collection> <bucket> <terms...>   - Search objects")
		fmt.Println("  suggest <collection> <bucket> <word>     - Complete a word")
		fmt.Println("  list <collection> <bucket> [limit]       - List indexed words")
	case c.ingest != nil:
		fmt.Println("  push <collection> <bucket> <object> <text...>  - Index text")
		fmt.Println("  pop <collection> <bucket> <object> <text...>   - Remove text")
		fmt.Println("  count <collection> [bucket [object]]           - Count items")
		fmt.Println("  flushc|flushb|flusho <collection> [...]        - Erase data")
	case c.control != nil:
		fmt.Println("  consolidate     - Write pending index changes")
		fmt.Println("  backup <path>   - Back up the database")
		fmt.Println("  restore <path>  - Restore a backup")
		fmt.Println("  info            - Show server statistics")
	}
	fmt.Println("  ping            - Check the server")
	fmt.Println("  manual [name]   - Server manuals")
	fmt.Println("  stats           - Show channel statistics")
	fmt.Println("  quit            - End the session")
}
