// Package commands implements the trellis-decode subcommands.
package commands

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/trellis-protocol/trellis-go/pkg/wire"
)

// ParseHex decodes a free-form hex string. Whitespace, commas and "0x"
// prefixes are tolerated so captures can be pasted as-is.
func ParseHex(s string) ([]byte, error) {
	cleaned := strings.NewReplacer(" ", "", "\t", "", "\n", "", "\r", "", ",", "", "0x", "", "0X", "").Replace(s)
	if cleaned == "" {
		return nil, fmt.Errorf("no hex input")
	}
	data, err := hex.DecodeString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("invalid hex input: %w", err)
	}
	return data, nil
}

// DecodeAll decodes every message in data and returns one description per
// message. Dispatch is on the message id of each header: the declaration
// family decodes as a Declare envelope, everything else as a transport
// message.
func DecodeAll(data []byte) ([]string, error) {
	var out []string
	r := wire.NewReader(data)
	for r.CanRead() {
		header, err := r.Peek()
		if err != nil {
			return out, err
		}
		var desc string
		if wire.MessageID(header) == wire.MidDeclare {
			d, err := wire.DecodeDeclare(r)
			if err != nil {
				return out, fmt.Errorf("message %d: %w", len(out)+1, err)
			}
			desc = FormatDeclare(d)
		} else {
			m, err := wire.DecodeTransportMessage(r)
			if err != nil {
				return out, fmt.Errorf("message %d: %w", len(out)+1, err)
			}
			desc = FormatTransport(m)
		}
		out = append(out, desc)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty input")
	}
	return out, nil
}

// FormatDeclare renders a Declare envelope and its body on one line.
func FormatDeclare(d *wire.Declare) string {
	var b strings.Builder
	b.WriteString("Declare")
	if !d.QoS.IsDefault() {
		fmt.Fprintf(&b, " qos={priority=%d congestion=%d express=%t}", d.QoS.Priority, d.QoS.Congestion, d.QoS.Express)
	}
	if d.Timestamp != nil {
		fmt.Fprintf(&b, " timestamp={time=%d id=%s}", d.Timestamp.Time, d.Timestamp.ID)
	}
	b.WriteString(" ")
	b.WriteString(formatDeclareBody(d.Body))
	return b.String()
}

func formatDeclareBody(body wire.DeclareBody) string {
	switch x := body.(type) {
	case wire.DeclareKeyExpr:
		return fmt.Sprintf("DeclareKeyExpr{id=%d expr=%s}", x.ID, formatWireExpr(x.WireExpr))
	case wire.UndeclareKeyExpr:
		return fmt.Sprintf("UndeclareKeyExpr{id=%d}", x.ID)
	case wire.DeclareSubscriber:
		return fmt.Sprintf("DeclareSubscriber{id=%d expr=%s mapping=%s reliability=%s}",
			x.ID, formatWireExpr(x.WireExpr), x.Mapping, x.Info.Reliability)
	case wire.UndeclareSubscriber:
		return fmt.Sprintf("UndeclareSubscriber{id=%d}", x.ID)
	case wire.DeclareQueryable:
		return fmt.Sprintf("DeclareQueryable{id=%d expr=%s mapping=%s complete=%d distance=%d}",
			x.ID, formatWireExpr(x.WireExpr), x.Mapping, x.Info.Complete, x.Info.Distance)
	case wire.UndeclareQueryable:
		return fmt.Sprintf("UndeclareQueryable{id=%d}", x.ID)
	case wire.DeclareToken:
		return fmt.Sprintf("DeclareToken{id=%d expr=%s mapping=%s}", x.ID, formatWireExpr(x.WireExpr), x.Mapping)
	case wire.UndeclareToken:
		return fmt.Sprintf("UndeclareToken{id=%d}", x.ID)
	default:
		return fmt.Sprintf("Unknown{%T}", body)
	}
}

func formatWireExpr(e wire.WireExpr) string {
	if e.HasSuffix() {
		return fmt.Sprintf("%d:%q", e.Scope, e.Suffix)
	}
	return fmt.Sprintf("%d", e.Scope)
}

// FormatTransport renders a transport message on one line.
func FormatTransport(m wire.TransportMessage) string {
	switch x := m.Body.(type) {
	case wire.InitSyn:
		return fmt.Sprintf("InitSyn{version=%d role=%s zid=%s resolution=%s batch=%d qos=%t}",
			x.Version, x.Role, x.ZID, x.Resolution, x.BatchSize, x.QoS)
	case wire.InitAck:
		return fmt.Sprintf("InitAck{version=%d role=%s zid=%s resolution=%s batch=%d qos=%t cookie=%d bytes}",
			x.Version, x.Role, x.ZID, x.Resolution, x.BatchSize, x.QoS, len(x.Cookie))
	case wire.OpenSyn:
		return fmt.Sprintf("OpenSyn{lease=%s initial_sn=%d cookie=%d bytes}", x.Lease, x.InitialSN, len(x.Cookie))
	case wire.OpenAck:
		return fmt.Sprintf("OpenAck{lease=%s initial_sn=%d}", x.Lease, x.InitialSN)
	case wire.Close:
		return fmt.Sprintf("Close{reason=%s}", x.Reason)
	case wire.KeepAlive:
		return "KeepAlive{}"
	default:
		return fmt.Sprintf("Unknown{%T}", m.Body)
	}
}

// RunHex decodes hex from args, or from r when args is empty, and writes
// one line per message to out. With framed set, the input is treated as a
// stream of length-prefixed frames.
func RunHex(args []string, framed bool, r io.Reader, out io.Writer) error {
	var input string
	if len(args) > 0 {
		input = strings.Join(args, "")
	} else {
		data, err := io.ReadAll(bufio.NewReader(r))
		if err != nil {
			return err
		}
		input = string(data)
	}

	data, err := ParseHex(input)
	if err != nil {
		return err
	}
	if framed {
		return decodeFramed(data, out)
	}

	lines, err := DecodeAll(data)
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
	return err
}
