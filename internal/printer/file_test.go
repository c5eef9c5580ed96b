package printer

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileTransportRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "receipt.bin")
	transport := NewFileTransport(path)

	if err := transport.Open(); err != nil {
		t.Fatalf("failed to open transport: %v", err)
	}

	doc := []byte{0x1b, '@', 'H', 'e', 'l', 'l', 'o', '\n'}
	n, err := transport.Write(doc)
	if err != nil {
		t.Fatalf("failed to write: %v", err)
	}
	if n != len(doc) {
		t.Errorf("expected %d bytes written, got %d", len(doc), n)
	}
	if err := transport.Close(); err != nil {
		t.Fatalf("failed to close transport: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read output file: %v", err)
	}
	if !bytes.Equal(got, doc) {
		t.Errorf("file contents differ: got %v, want %v", got, doc)
	}
}

func TestFileTransportWriteBeforeOpen(t *testing.T) {
	transport := NewFileTransport(filepath.Join(t.TempDir(), "receipt.bin"))

	_, err := transport.Write([]byte("data"))
	if !errors.Is(err, ErrNotOpen) {
		t.Errorf("expected ErrNotOpen, got %v", err)
	}
}

func TestFileTransportOpenTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "receipt.bin")
	transport := NewFileTransport(path)

	for _, doc := range [][]byte{[]byte("first document"), []byte("second")} {
		if err := transport.Open(); err != nil {
			t.Fatalf("failed to open transport: %v", err)
		}
		if _, err := transport.Write(doc); err != nil {
			t.Fatalf("failed to write: %v", err)
		}
		if err := transport.Close(); err != nil {
			t.Fatalf("failed to close transport: %v", err)
		}
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read output file: %v", err)
	}
	if string(got) != "second" {
		t.Errorf("expected the file to hold only the last document, got %q", got)
	}
}

func TestFileTransportCloseIdempotent(t *testing.T) {
	transport := NewFileTransport(filepath.Join(t.TempDir(), "receipt.bin"))
	if err := transport.Close(); err != nil {
		t.Errorf("closing an unopened transport should not error, got %v", err)
	}
}
