package transport

import (
	"crypto/rand"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/trellis-protocol/trellis-go/pkg/log"
	"github.com/trellis-protocol/trellis-go/pkg/wire"
)

// ProtocolVersion is the wire protocol version this implementation speaks.
// Establishment requires an exact match.
const ProtocolVersion = 8

// DefaultLease is used when the configuration does not set one.
const DefaultLease = 10 * time.Second

// Config holds the process-wide establishment parameters. All fields are
// fixed before the first handshake; a Manager never mutates its config.
type Config struct {
	// Role this node declares during establishment: "router", "peer" or
	// "client".
	Role string `yaml:"role"`

	// BatchSize is the largest batch in bytes this node is willing to
	// read. Zero means the protocol default.
	BatchSize uint16 `yaml:"batch_size"`

	// IDWidth and SNWidth are the bit widths (8, 16, 32 or 64) this node
	// supports for numeric ids and sequence numbers.
	IDWidth uint8 `yaml:"id_width"`
	SNWidth uint8 `yaml:"sn_width"`

	// QoS advertises quality-of-service support.
	QoS bool `yaml:"qos"`

	// Lease is the keep-alive lease this node grants its peers.
	Lease time.Duration `yaml:"lease"`
}

// DefaultConfig returns a peer with protocol defaults.
func DefaultConfig() Config {
	return Config{
		Role:      "peer",
		BatchSize: wire.DefaultBatchSize,
		IDWidth:   32,
		SNWidth:   32,
		QoS:       true,
		Lease:     DefaultLease,
	}
}

// LoadConfig reads a YAML configuration file, filling unset fields with
// defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = wire.DefaultBatchSize
	}
	if cfg.Lease == 0 {
		cfg.Lease = DefaultLease
	}
	return cfg, nil
}

// role maps the configured role name to its wire value.
func (c Config) role() (wire.Role, error) {
	switch c.Role {
	case "router":
		return wire.RoleRouter, nil
	case "peer", "":
		return wire.RolePeer, nil
	case "client":
		return wire.RoleClient, nil
	default:
		return 0, fmt.Errorf("unknown role %q", c.Role)
	}
}

// resolution maps the configured bit widths to a wire resolution.
func (c Config) resolution() (wire.Resolution, error) {
	id, err := widthFromBits(c.IDWidth)
	if err != nil {
		return 0, fmt.Errorf("id_width: %w", err)
	}
	sn, err := widthFromBits(c.SNWidth)
	if err != nil {
		return 0, fmt.Errorf("sn_width: %w", err)
	}
	return wire.NewResolution(id, sn), nil
}

func widthFromBits(bits uint8) (wire.Width, error) {
	switch bits {
	case 8:
		return wire.Width8, nil
	case 16:
		return wire.Width16, nil
	case 0, 32:
		return wire.Width32, nil
	case 64:
		return wire.Width64, nil
	default:
		return 0, fmt.Errorf("unsupported width %d", bits)
	}
}

// Manager drives session establishment on behalf of one node. It holds the
// node's identity, the negotiation parameters and the key that seals
// handshake cookies. A single Manager serves any number of links
// concurrently; it carries no per-link state.
type Manager struct {
	zid        wire.NodeID
	role       wire.Role
	resolution wire.Resolution
	batchSize  uint16
	qos        bool
	lease      time.Duration
	cookieKey  []byte
	logger     log.Logger
}

// NewManager builds a Manager from cfg with a fresh random identity and
// cookie key.
func NewManager(cfg Config) (*Manager, error) {
	role, err := cfg.role()
	if err != nil {
		return nil, err
	}
	res, err := cfg.resolution()
	if err != nil {
		return nil, err
	}
	batch := cfg.BatchSize
	if batch == 0 {
		batch = wire.DefaultBatchSize
	}
	lease := cfg.Lease
	if lease == 0 {
		lease = DefaultLease
	}

	key := make([]byte, cookieKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate cookie key: %w", err)
	}

	return &Manager{
		zid:        wire.NewNodeID(),
		role:       role,
		resolution: res,
		batchSize:  batch,
		qos:        cfg.QoS,
		lease:      lease,
		cookieKey:  key,
		logger:     log.NoopLogger{},
	}, nil
}

// ZID returns this node's identity.
func (m *Manager) ZID() wire.NodeID {
	return m.zid
}

// SetLogger configures protocol-event logging for handshakes driven by
// this manager. Pass nil to disable logging.
func (m *Manager) SetLogger(logger log.Logger) {
	if logger == nil {
		logger = log.NoopLogger{}
	}
	m.logger = logger
}

// logHandshake emits a session-layer handshake event.
func (m *Manager) logHandshake(link *Link, direction log.Direction, stage, reason string) {
	m.logger.Log(log.Event{
		Timestamp:  time.Now(),
		LinkID:     link.ID(),
		Direction:  direction,
		Layer:      log.LayerSession,
		Category:   log.CategoryHandshake,
		RemoteAddr: link.RemoteAddr(),
		Handshake: &log.HandshakeEvent{
			Stage:  stage,
			Reason: reason,
		},
	})
}
