// Command ud manages the local user directory from the terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/userdir/internal/app"
	"github.com/and161185/userdir/internal/config"
	"github.com/and161185/userdir/internal/errs"
	"github.com/and161185/userdir/internal/logging"
)

func usage() {
	fmt.Fprintf(os.Stderr, `ud CLI
Usage:
  ud [-cache file] [-seed url] [-v] <cmd> [args]

Commands:
  version
  list    [-filter text] [-page n] [-size 5|10|25]
  add     -first <name> -last <name> -email <addr> [-dept <name>]
  edit    -id <id> [-first] [-last] [-email] [-dept]
  rm      -id <id>
  reset                                         (clear the cache and reseed)
`)
	os.Exit(2)
}

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	os.Exit(run())
}

// run dispatches subcommands against the configured cache backend.
func run() int {
	cfg, err := config.Load()
	if err != nil {
		fail(err)
	}

	// global flags
	cachePath := flag.String("cache", cfg.Cache.Path, "cache file (file backend)")
	seedURL := flag.String("seed", cfg.Remote.SeedURL, "seed listing URL")
	verbose := flag.Bool("v", false, "log to stderr")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)
	if cmd == "version" {
		fmt.Printf("ud %s (%s)\n", version, buildDate)
		return 0
	}
	cfg.Cache.Path = *cachePath
	cfg.Remote.SeedURL = *seedURL

	logger := zap.NewNop()
	if *verbose {
		if logger, err = logging.New(cfg.App.Env); err != nil {
			fail(err)
		}
	}
	defer logging.Sync(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, closeStore, err := app.OpenBlobStore(ctx, cfg, logger)
	if err != nil {
		fail(err)
	}
	defer closeStore()

	dir := app.NewDirectory(store, cfg, logger, nil)
	if err := dir.Init(ctx); err != nil {
		if !errors.Is(err, errs.ErrFetchFailed) {
			fail(err)
		}
		// the directory stays usable, just empty
		fmt.Fprintln(os.Stderr, "warning:", err)
	}

	args := flag.Args()[1:]
	switch cmd {
	case "list":
		err = cmdList(dir, args, os.Stdout, os.Stderr)
	case "add":
		err = cmdAdd(ctx, dir, args, os.Stdout, os.Stderr)
	case "edit":
		err = cmdEdit(ctx, dir, args, os.Stdout, os.Stderr)
	case "rm":
		err = cmdRemove(ctx, dir, args, os.Stdout, os.Stderr)
	case "reset":
		err = cmdReset(ctx, dir, os.Stdout)
	default:
		usage()
	}
	return exitCode(err, os.Stderr)
}

// exitCode prints err and maps it to the process status.
func exitCode(err error, stderr io.Writer) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		return 2
	default:
		fmt.Fprintln(stderr, err)
		return 1
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
