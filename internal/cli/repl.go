package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/zyntracker/internal/models"
)

// execIface is the command surface the shell dispatches to. App satisfies
// it; tests provide a stub.
type execIface interface {
	Add(ctx context.Context, when string) error
	List(ctx context.Context) error
	Edit(ctx context.Context, id int64, when string) error
	Remove(ctx context.Context, id int64) error
	Export(ctx context.Context, path string) error
	Stats(ctx context.Context, window int) error
	SyncStatus(ctx context.Context) error
	SyncSet(ctx context.Context, cfg models.SyncConfig, prompt bool) error
	SyncClear(ctx context.Context) error
	SyncReload(ctx context.Context) error
}

const shellHelp = `Available commands:
  add [when]                       record a log (default now)
  (l)ist                           list logs
  edit <id> <when>                 change a log's time
  rm <id>                          delete a log
  export [file]                    CSV to file or screen
  stats [window]                   daily/weekly/monthly counts
  sync [status]                    show sync state
  sync set <owner> <repo> [branch] [path]
  sync clear | sync reload
  exit | quit`

// runREPL reads one command per line and dispatches it until EOF, exit or
// quit. Command errors are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, promptFn func() string, in *bufio.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, promptFn())
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			fmt.Fprintln(out, shellHelp)

		case "add":
			err = a.Add(ctx, strings.Join(args, " "))

		case "l", "list":
			err = a.List(ctx)

		case "edit":
			if len(args) < 2 {
				fmt.Fprintln(out, "Usage: edit <id> <when>")
				continue
			}
			var id int64
			if id, err = parseID(args[0]); err == nil {
				err = a.Edit(ctx, id, strings.Join(args[1:], " "))
			}

		case "rm", "delete":
			if len(args) != 1 {
				fmt.Fprintln(out, "Usage: rm <id>")
				continue
			}
			var id int64
			if id, err = parseID(args[0]); err == nil {
				err = a.Remove(ctx, id)
			}

		case "export":
			err = a.Export(ctx, strings.Join(args, " "))

		case "stats":
			window := 0
			if len(args) > 0 {
				if window, err = strconv.Atoi(args[0]); err != nil {
					err = fmt.Errorf("invalid window %q", args[0])
				}
			}
			if err == nil {
				err = a.Stats(ctx, window)
			}

		case "sync":
			err = runSync(ctx, a, args, out)

		case "exit", "quit":
			fmt.Fprintln(out, "Bye!")
			return

		default:
			fmt.Fprintln(out, "Unknown command:", cmd)
		}

		if err != nil {
			fmt.Fprintln(out, "Error:", err)
		}
	}
}

func runSync(ctx context.Context, a execIface, args []string, out io.Writer) error {
	if len(args) == 0 {
		return a.SyncStatus(ctx)
	}
	switch args[0] {
	case "status":
		return a.SyncStatus(ctx)
	case "set":
		if len(args) < 3 {
			fmt.Fprintln(out, "Usage: sync set <owner> <repo> [branch] [path]")
			return nil
		}
		cfg := models.SyncConfig{Owner: args[1], Repo: args[2]}
		if len(args) > 3 {
			cfg.Branch = args[3]
		}
		if len(args) > 4 {
			cfg.Path = args[4]
		}
		return a.SyncSet(ctx, cfg, true)
	case "clear":
		return a.SyncClear(ctx)
	case "reload":
		return a.SyncReload(ctx)
	default:
		fmt.Fprintln(out, "Unknown sync command:", args[0])
		return nil
	}
}
