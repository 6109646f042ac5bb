package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

const shellHelp = `Commands:
  <hex bytes>        Decode one or more messages from hex
  framed <hex>       Decode length-prefixed frames from hex
  help               Show this help
  exit               Leave the shell
`

// RunShell runs an interactive decoding loop. Each input line is decoded
// and printed; decoding errors do not end the session.
func RunShell(out io.Writer) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "decode> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	fmt.Fprint(out, shellHelp)

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			return nil
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		switch {
		case input == "help" || input == "?":
			fmt.Fprint(out, shellHelp)

		case input == "exit" || input == "quit" || input == "q":
			return nil

		case strings.HasPrefix(input, "framed "):
			data, err := ParseHex(strings.TrimPrefix(input, "framed "))
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				continue
			}
			if err := decodeFramed(data, out); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}

		default:
			data, err := ParseHex(input)
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				continue
			}
			lines, err := DecodeAll(data)
			for _, l := range lines {
				fmt.Fprintln(out, l)
			}
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
		}
	}
}
