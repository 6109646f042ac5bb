package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/trellis-protocol/trellis-go/pkg/log"
)

// Framing constants.
const (
	// LengthPrefixSize is the size of the length prefix in bytes.
	LengthPrefixSize = 2

	// DefaultMaxBatchSize is the default maximum batch size in bytes.
	DefaultMaxBatchSize = 65535

	// MaxLogFrameDataSize is the maximum frame data size to include in log
	// events. Larger frames are truncated in the captured payload.
	MaxLogFrameDataSize = 4096
)

// Framing errors.
var (
	// ErrBatchTooLarge indicates the batch exceeds the negotiated size.
	ErrBatchTooLarge = errors.New("batch too large")

	// ErrEmptyBatch indicates a zero-length batch.
	ErrEmptyBatch = errors.New("batch is empty")

	// ErrFrameTruncated indicates the stream ended mid-frame.
	ErrFrameTruncated = errors.New("frame truncated")
)

// FrameWriter writes length-prefixed batch frames to an underlying writer.
type FrameWriter struct {
	w            io.Writer
	maxBatchSize uint16
	mu           sync.Mutex

	// Logging support (optional)
	logger log.Logger
	linkID string
}

// NewFrameWriter creates a frame writer with the default batch size.
func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{
		w:            w,
		maxBatchSize: DefaultMaxBatchSize,
	}
}

// NewFrameWriterWithMaxSize creates a frame writer with a custom batch size.
func NewFrameWriterWithMaxSize(w io.Writer, maxSize uint16) *FrameWriter {
	return &FrameWriter{
		w:            w,
		maxBatchSize: maxSize,
	}
}

// SetMaxBatchSize updates the maximum batch size, typically after the
// handshake has negotiated one.
func (fw *FrameWriter) SetMaxBatchSize(size uint16) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	fw.maxBatchSize = size
}

// MaxBatchSize returns the current maximum batch size.
func (fw *FrameWriter) MaxBatchSize() uint16 {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return fw.maxBatchSize
}

// SetLogger configures logging for this writer.
// Pass nil to disable logging.
func (fw *FrameWriter) SetLogger(logger log.Logger, linkID string) {
	fw.logger = logger
	fw.linkID = linkID
}

// WriteFrame writes a length-prefixed batch frame.
// Thread-safe: can be called from multiple goroutines.
func (fw *FrameWriter) WriteFrame(data []byte) error {
	if len(data) == 0 {
		return ErrEmptyBatch
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()

	if len(data) > int(fw.maxBatchSize) {
		return fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(data), fw.maxBatchSize)
	}

	// Write length prefix (2 bytes, little-endian)
	var lengthBuf [LengthPrefixSize]byte
	binary.LittleEndian.PutUint16(lengthBuf[:], uint16(len(data)))

	if _, err := fw.w.Write(lengthBuf[:]); err != nil {
		return fmt.Errorf("failed to write length prefix: %w", err)
	}

	// Write payload
	if _, err := fw.w.Write(data); err != nil {
		return fmt.Errorf("failed to write payload: %w", err)
	}

	// Log the frame if logger is configured
	if fw.logger != nil {
		fw.logger.Log(makeFrameEvent(fw.linkID, data, log.DirectionOut))
	}

	return nil
}

// FrameReader reads length-prefixed batch frames from an underlying reader.
type FrameReader struct {
	r            io.Reader
	maxBatchSize uint16
	lengthBuf    [LengthPrefixSize]byte

	// Logging support (optional)
	logger log.Logger
	linkID string
}

// NewFrameReader creates a frame reader with the default batch size.
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{
		r:            r,
		maxBatchSize: DefaultMaxBatchSize,
	}
}

// NewFrameReaderWithMaxSize creates a frame reader with a custom batch size.
func NewFrameReaderWithMaxSize(r io.Reader, maxSize uint16) *FrameReader {
	return &FrameReader{
		r:            r,
		maxBatchSize: maxSize,
	}
}

// SetLogger configures logging for this reader.
// Pass nil to disable logging.
func (fr *FrameReader) SetLogger(logger log.Logger, linkID string) {
	fr.logger = logger
	fr.linkID = linkID
}

// ReadFrame reads a length-prefixed batch frame.
// Returns the frame payload (without the length prefix).
func (fr *FrameReader) ReadFrame() ([]byte, error) {
	// Read length prefix
	if _, err := io.ReadFull(fr.r, fr.lengthBuf[:]); err != nil {
		if err == io.EOF {
			return nil, err
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrFrameTruncated
		}
		return nil, fmt.Errorf("failed to read length prefix: %w", err)
	}

	length := binary.LittleEndian.Uint16(fr.lengthBuf[:])

	// Validate length
	if length == 0 {
		return nil, ErrEmptyBatch
	}
	if length > fr.maxBatchSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, length, fr.maxBatchSize)
	}

	// Read payload
	payload := make([]byte, length)
	if _, err := io.ReadFull(fr.r, payload); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || err == io.EOF {
			return nil, ErrFrameTruncated
		}
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}

	// Log the frame if logger is configured
	if fr.logger != nil {
		fr.logger.Log(makeFrameEvent(fr.linkID, payload, log.DirectionIn))
	}

	return payload, nil
}

// SetMaxBatchSize updates the maximum batch size, typically after the
// handshake has negotiated one.
func (fr *FrameReader) SetMaxBatchSize(size uint16) {
	fr.maxBatchSize = size
}

// makeFrameEvent creates a log event for a frame.
func makeFrameEvent(linkID string, data []byte, direction log.Direction) log.Event {
	frameSize := LengthPrefixSize + len(data)
	frameData := data
	truncated := false

	if len(data) > MaxLogFrameDataSize {
		frameData = data[:MaxLogFrameDataSize]
		truncated = true
	}

	return log.Event{
		Timestamp: time.Now(),
		LinkID:    linkID,
		Direction: direction,
		Layer:     log.LayerFraming,
		Category:  log.CategoryMessage,
		Frame: &log.FrameEvent{
			Size:      frameSize,
			Data:      frameData,
			Truncated: truncated,
		},
	}
}

// Framer combines frame reading and writing.
type Framer struct {
	*FrameReader
	*FrameWriter
}

// NewFramer creates a new framer for bidirectional communication.
func NewFramer(rw io.ReadWriter) *Framer {
	return &Framer{
		FrameReader: NewFrameReader(rw),
		FrameWriter: NewFrameWriter(rw),
	}
}

// NewFramerWithMaxSize creates a framer with a custom max batch size.
func NewFramerWithMaxSize(rw io.ReadWriter, maxSize uint16) *Framer {
	return &Framer{
		FrameReader: NewFrameReaderWithMaxSize(rw, maxSize),
		FrameWriter: NewFrameWriterWithMaxSize(rw, maxSize),
	}
}

// SetLogger configures logging for both reader and writer.
// Pass nil to disable logging.
func (f *Framer) SetLogger(logger log.Logger, linkID string) {
	f.FrameReader.SetLogger(logger, linkID)
	f.FrameWriter.SetLogger(logger, linkID)
}

// SetMaxBatchSize applies a negotiated batch size to both directions.
func (f *Framer) SetMaxBatchSize(size uint16) {
	f.FrameReader.SetMaxBatchSize(size)
	f.FrameWriter.SetMaxBatchSize(size)
}

// FrameSize returns the total frame size including the length prefix.
func FrameSize(payloadSize int) int {
	return LengthPrefixSize + payloadSize
}
