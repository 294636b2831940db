package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/XDXX/PNA/internal"
	"github.com/XDXX/PNA/internal/utils"
	"github.com/XDXX/PNA/kvs"
	log "github.com/sirupsen/logrus"
)

func main() {
	addr := flag.String("addr", net.JoinHostPort(internal.DEFAULT_HOST, strconv.Itoa(internal.DEFAULT_PORT)), "kvs server IP:PORT")
	timeout := flag.Duration("timeout", internal.DEFAULT_TIMEOUT, "Request timeout")
	flag.Usage = usage
	flag.Parse()

	host, portStr, err := net.SplitHostPort(*addr)
	if err != nil {
		log.Fatal(err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		log.Fatalf("invalid port %q", portStr)
	}

	client, err := kvs.Connect(kvs.WithHost(host), kvs.WithPort(port), kvs.WithTimeout(*timeout))
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	if flag.NArg() > 0 {
		code := oneShot(client, flag.Args())
		client.Close()
		os.Exit(code)
	}

	repl(client, *addr)
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `Usage: %s [flags] [set KEY VALUE | get KEY | rm KEY | scan]

Without a command an interactive prompt is started.

`, os.Args[0])
	flag.PrintDefaults()
}

func oneShot(client *kvs.Client, args []string) int {
	if len(args) > 3 {
		fmt.Fprintf(os.Stderr, "too many arguments for %q\n", args[0])
		return 2
	}

	var cmd, key, value string
	cmd = args[0]
	if len(args) > 1 {
		key = args[1]
	}
	if len(args) > 2 {
		value = args[2]
	}

	resp, err := client.Execute(cmd, key, value)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, kvs.ErrUnknownCommand) || errors.Is(err, kvs.ErrMissingKey) {
			return 2
		}
		return 1
	}

	if resp != "" {
		fmt.Println(resp)
	}
	return 0
}

func repl(client *kvs.Client, addr string) {
	fmt.Printf("Connected to %v\n", addr)
	fmt.Println("Type commands (set, get, rm, scan) or 'exit' to quit.")

	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Print("> ")

		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println()
			return
		}

		line = strings.TrimSpace(line)

		if line == "" {
			continue
		}

		if line == "exit" {
			return
		}

		cmd, key, value, err := utils.SplitStringIntoCommandAndArguments(line)
		if err != nil {
			fmt.Println("parse error:", err)
			continue
		}

		resp, err := client.Execute(cmd, key, value)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) || errors.Is(err, net.ErrClosed) {
				log.Fatal(err)
			}
			fmt.Println("error:", err)
			continue
		}

		if resp != "" {
			fmt.Println(resp)
		}
	}
}
