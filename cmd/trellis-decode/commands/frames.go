package commands

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/trellis-protocol/trellis-go/pkg/transport"
)

// decodeFramed splits a capture of length-prefixed frames and decodes the
// messages in each.
func decodeFramed(data []byte, out io.Writer) error {
	fr := transport.NewFrameReader(bytes.NewReader(data))
	for i := 1; ; i++ {
		payload, err := fr.ReadFrame()
		if errors.Is(err, io.EOF) {
			if i == 1 {
				return fmt.Errorf("empty input")
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}

		fmt.Fprintf(out, "frame %d (%d bytes):\n", i, len(payload))
		lines, err := DecodeAll(payload)
		for _, line := range lines {
			fmt.Fprintf(out, "  %s\n", line)
		}
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
	}
}
