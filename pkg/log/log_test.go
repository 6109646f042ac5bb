package log

import (
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func sampleEvent(linkID string, category Category) Event {
	return Event{
		Timestamp: time.Now(),
		LinkID:    linkID,
		Direction: DirectionIn,
		Layer:     LayerFraming,
		Category:  category,
		Frame: &FrameEvent{
			Size: 16,
			Data: []byte{0x01, 0x02, 0x03},
		},
	}
}

func TestEventCBORRoundTrip(t *testing.T) {
	event := sampleEvent("link-1", CategoryMessage)
	event.Handshake = nil
	event.PeerID = "aabbcc"

	data, err := EncodeEvent(event)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}

	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}
	if decoded.LinkID != event.LinkID {
		t.Errorf("LinkID mismatch: got %q, want %q", decoded.LinkID, event.LinkID)
	}
	if decoded.PeerID != event.PeerID {
		t.Errorf("PeerID mismatch: got %q, want %q", decoded.PeerID, event.PeerID)
	}
	if decoded.Frame == nil || decoded.Frame.Size != 16 {
		t.Errorf("Frame payload lost: %+v", decoded.Frame)
	}
	if decoded.Message != nil || decoded.Error != nil {
		t.Error("absent payloads decoded as present")
	}
}

func TestFileLoggerAndReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.cbor")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	logger.Log(sampleEvent("link-1", CategoryMessage))
	logger.Log(sampleEvent("link-2", CategoryError))
	logger.Log(sampleEvent("link-1", CategoryHandshake))
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Log after close is silently ignored.
	logger.Log(sampleEvent("link-3", CategoryMessage))

	reader, err := NewFilteredReader(path, Filter{LinkID: "link-1"})
	if err != nil {
		t.Fatalf("NewFilteredReader failed: %v", err)
	}
	defer reader.Close()

	events, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[1].Category != CategoryHandshake {
		t.Errorf("event order lost: %v", events[1].Category)
	}

	if _, err := reader.Next(); err != io.EOF {
		t.Errorf("expected io.EOF after ReadAll, got %v", err)
	}
}

func TestFileLoggerConcurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.cbor")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				logger.Log(sampleEvent("link-c", CategoryMessage))
			}
		}()
	}
	wg.Wait()
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	events, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(events) != 200 {
		t.Errorf("got %d events, want 200", len(events))
	}
}

func TestMultiLoggerFanOut(t *testing.T) {
	var a, b recordingLogger

	multi := NewMultiLogger(&a, &b, NoopLogger{})
	multi.Log(sampleEvent("link-1", CategoryMessage))
	multi.Log(sampleEvent("link-2", CategoryError))

	if len(a.events) != 2 || len(b.events) != 2 {
		t.Errorf("fan-out incomplete: %d / %d", len(a.events), len(b.events))
	}
}

// recordingLogger collects events for assertions.
type recordingLogger struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingLogger) Log(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}
