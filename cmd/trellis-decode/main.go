// Command trellis-decode decodes raw protocol bytes and protocol log
// files into human-readable form.
//
// Usage:
//
//	trellis-decode <command> [flags] [args]
//
// Commands:
//
//	hex      Decode hex-encoded message bytes from arguments or stdin
//	log      View a protocol log file
//	shell    Interactive decoding shell
//
// Examples:
//
//	# Decode a declaration message
//	trellis-decode hex 19 02 05 00 09 64656d6f2f74657374
//
//	# Decode a frame capture from stdin
//	cat capture.hex | trellis-decode hex
//
//	# View wire-layer events from a protocol log
//	trellis-decode log --layer wire session.tlog
//
//	# Decode messages interactively
//	trellis-decode shell
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/trellis-protocol/trellis-go/cmd/trellis-decode/commands"
)

const usage = `trellis-decode - Trellis protocol decoder

Usage:
  trellis-decode <command> [flags] [args]

Commands:
  hex      Decode hex-encoded message bytes from arguments or stdin
  log      View a protocol log file
  shell    Interactive decoding shell

Use "trellis-decode <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "hex":
		runHex(args)
	case "log":
		runLog(args)
	case "shell":
		if err := commands.RunShell(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func runHex(args []string) {
	fs := flag.NewFlagSet("hex", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `trellis-decode hex - Decode hex-encoded message bytes

Usage:
  trellis-decode hex [flags] [hex bytes...]

Reads from stdin when no arguments are given.

Flags:
`)
		fs.PrintDefaults()
	}

	framed := fs.Bool("framed", false, "Input carries length-prefixed frames instead of bare messages")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if err := commands.RunHex(fs.Args(), *framed, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runLog(args []string) {
	fs := flag.NewFlagSet("log", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `trellis-decode log - View a protocol log file

Usage:
  trellis-decode log [flags] <file.tlog>

Flags:
`)
		fs.PrintDefaults()
	}

	linkID := fs.String("link-id", "", "Filter by link ID")
	layer := fs.String("layer", "", "Filter by layer (framing, wire, session)")
	direction := fs.String("direction", "", "Filter by direction (in, out)")
	category := fs.String("category", "", "Filter by category (message, handshake, state, error)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}

	opts := commands.LogOptions{
		LinkID:    *linkID,
		Layer:     *layer,
		Direction: *direction,
		Category:  *category,
	}
	if err := commands.RunLog(fs.Arg(0), opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
