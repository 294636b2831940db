// Command kvs operates directly on a data directory without a server.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/XDXX/PNA/core"
	"github.com/XDXX/PNA/internal"
	log "github.com/sirupsen/logrus"
)

func main() {
	dir := flag.String("dir", internal.DefaultDataDir, "Directory Path of the store")
	verbose := flag.Bool("v", false, "Log engine activity to stderr")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] set KEY VALUE | get KEY | rm KEY | scan | compact\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	logger := log.New()
	logger.SetOutput(io.Discard)
	if *verbose {
		logger.SetOutput(os.Stderr)
		logger.SetLevel(log.DebugLevel)
	}

	os.Exit(run(*dir, flag.Args(), logger))
}

func run(dir string, args []string, logger log.FieldLogger) int {
	kind, err := core.ResolveEngineKind(dir, core.EngineKvs)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	store, err := core.Open(dir, core.WithLogger(logger.WithField("engine", kind)))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer store.Close()

	cmd, rest := args[0], args[1:]

	switch {
	case cmd == "set" && len(rest) == 2:
		err = store.Set([]byte(rest[0]), []byte(rest[1]))

	case cmd == "get" && len(rest) == 1:
		value, ok, gerr := store.Get([]byte(rest[0]))
		switch {
		case gerr != nil:
			err = gerr
		case !ok:
			fmt.Println("Key not found")
		default:
			fmt.Println(string(value))
		}

	case cmd == "rm" && len(rest) == 1:
		err = store.Remove([]byte(rest[0]))
		if errors.Is(err, core.ErrKeyNotFound) {
			fmt.Println("Key not found")
			return 1
		}

	case cmd == "scan" && len(rest) == 0:
		keys, kerr := store.Keys()
		err = kerr
		for _, k := range keys {
			fmt.Println(string(k))
		}

	case cmd == "compact" && len(rest) == 0:
		err = store.Compact()

	default:
		fmt.Fprintf(os.Stderr, "invalid command: %v\n", args)
		return 2
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
