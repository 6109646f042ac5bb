package commands

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/trellis-protocol/trellis-go/pkg/log"
)

// LogOptions selects which events of a protocol log to show. Empty fields
// match everything.
type LogOptions struct {
	LinkID    string
	Layer     string
	Direction string
	Category  string
}

func (o LogOptions) filter() (log.Filter, error) {
	f := log.Filter{LinkID: o.LinkID}

	if o.Layer != "" {
		l, err := parseLayer(o.Layer)
		if err != nil {
			return f, err
		}
		f.Layer = &l
	}
	if o.Direction != "" {
		d, err := parseDirection(o.Direction)
		if err != nil {
			return f, err
		}
		f.Direction = &d
	}
	if o.Category != "" {
		c, err := parseCategory(o.Category)
		if err != nil {
			return f, err
		}
		f.Category = &c
	}
	return f, nil
}

func parseLayer(s string) (log.Layer, error) {
	switch s {
	case "framing":
		return log.LayerFraming, nil
	case "wire":
		return log.LayerWire, nil
	case "session":
		return log.LayerSession, nil
	default:
		return 0, fmt.Errorf("unknown layer %q (framing, wire, session)", s)
	}
}

func parseDirection(s string) (log.Direction, error) {
	switch s {
	case "in":
		return log.DirectionIn, nil
	case "out":
		return log.DirectionOut, nil
	default:
		return 0, fmt.Errorf("unknown direction %q (in, out)", s)
	}
}

func parseCategory(s string) (log.Category, error) {
	switch s {
	case "message":
		return log.CategoryMessage, nil
	case "handshake":
		return log.CategoryHandshake, nil
	case "state":
		return log.CategoryState, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("unknown category %q (message, handshake, state, error)", s)
	}
}

// RunLog prints the matching events of a protocol log file, one per line.
// Frame payloads are decoded inline when possible.
func RunLog(path string, opts LogOptions, out io.Writer) error {
	filter, err := opts.filter()
	if err != nil {
		return err
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return err
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		printEvent(out, event)
	}
}

func printEvent(out io.Writer, e log.Event) {
	fmt.Fprintf(out, "%s %-3s %-7s %-9s link=%s",
		e.Timestamp.Format("15:04:05.000"), e.Direction, e.Layer, e.Category, shortID(e.LinkID))

	switch {
	case e.Frame != nil:
		fmt.Fprintf(out, " frame size=%d", e.Frame.Size)
		if lines, err := DecodeAll(e.Frame.Data); err == nil {
			for _, line := range lines {
				fmt.Fprintf(out, "\n    %s", line)
			}
		} else {
			fmt.Fprintf(out, " data=%s", hex.EncodeToString(e.Frame.Data))
		}
	case e.Message != nil:
		fmt.Fprintf(out, " %s size=%d", e.Message.Kind, e.Message.Size)
	case e.Handshake != nil:
		fmt.Fprintf(out, " stage=%s", e.Handshake.Stage)
		if e.Handshake.Reason != "" {
			fmt.Fprintf(out, " reason=%q", e.Handshake.Reason)
		}
	case e.Error != nil:
		fmt.Fprintf(out, " error=%q", e.Error.Message)
	}
	fmt.Fprintln(out)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
