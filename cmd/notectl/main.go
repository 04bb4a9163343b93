package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/danmuck/notectl/internal/client"
	"github.com/danmuck/notectl/internal/logging"
)

const (
	envServerAddr = "NOTECTL_SERVER_ADDR"
	defaultAddr   = "127.0.0.1:7536"
)

const usage = `usage: notectl [-addr host:port] [-verbose] <command>

commands:
  new <text>   create a note
  list         print every live note
`

func main() {
	addr := flag.String("addr", "", "server address (default $NOTECTL_SERVER_ADDR or "+defaultAddr+")")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if *verbose {
		logging.ConfigureVerbose()
	} else {
		logging.ConfigureRuntime()
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(resolveAddr(*addr), args); err != nil {
		fmt.Fprintf(os.Stderr, "notectl: %v\n", err)
		os.Exit(1)
	}
}

func run(addr string, args []string) (err error) {
	c, cerr := client.Connect(context.Background(), client.Config{Address: addr})
	if cerr != nil {
		return cerr
	}
	// Disconnect on every exit path so the server reaps the session
	// instead of waiting on the stream to close.
	defer func() {
		derr := c.Disconnect()
		_ = c.Close()
		if err == nil {
			err = derr
		}
	}()

	switch args[0] {
	case "new":
		if len(args) < 2 {
			return fmt.Errorf("new requires note text")
		}
		if err := c.CreateNote(strings.Join(args[1:], " ")); err != nil {
			return err
		}
	case "list":
		bodies, err := c.ListNotes()
		if err != nil {
			return err
		}
		fmt.Println("Notes:")
		for _, body := range bodies {
			fmt.Printf("- %s\n", body)
		}
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}

	return nil
}

func resolveAddr(flagAddr string) string {
	if addr := strings.TrimSpace(flagAddr); addr != "" {
		return addr
	}
	if addr := strings.TrimSpace(os.Getenv(envServerAddr)); addr != "" {
		return addr
	}
	return defaultAddr
}
