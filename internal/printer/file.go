package printer

import (
	"fmt"
	"os"
)

// FileTransport writes receipts to a local file. It exists for
// development and tests; each Open truncates the target so the file
// holds exactly the last document.
type FileTransport struct {
	path string
	file *os.File
}

// NewFileTransport creates a transport writing to path.
func NewFileTransport(path string) *FileTransport {
	return &FileTransport{path: path}
}

func (t *FileTransport) Open() error {
	f, err := os.Create(t.path)
	if err != nil {
		return fmt.Errorf("opening output file %s: %w", t.path, err)
	}
	t.file = f
	return nil
}

func (t *FileTransport) Write(data []byte) (int, error) {
	if t.file == nil {
		return 0, ErrNotOpen
	}
	n, err := t.file.Write(data)
	if err != nil {
		return n, fmt.Errorf("writing to %s: %w", t.path, err)
	}
	return n, nil
}

func (t *FileTransport) Close() error {
	if t.file == nil {
		return nil
	}
	err := t.file.Close()
	t.file = nil
	return err
}
