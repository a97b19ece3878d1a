package runlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/scoutdig/scout/models"
)

// LogWriteError reports a failed append. Runs are not aborted on log
// failures, the caller prints the error and moves on.
type LogWriteError struct {
	Path string
	Err  error
}

func (e *LogWriteError) Error() string {
	return fmt.Sprintf("runlog append to %s failed: %v", e.Path, e.Err)
}

func (e *LogWriteError) Unwrap() error { return e.Err }

// Writer appends one JSON line per completed run.
type Writer struct {
	mu   sync.Mutex
	path string
}

func NewWriter(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("runlog dir: %w", err)
	}
	return &Writer{path: path}, nil
}

func (w *Writer) Path() string { return w.path }

// Append writes one run record as a single JSON line.
func (w *Writer) Append(entry models.RunLog) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	line, err := json.Marshal(entry)
	if err != nil {
		return &LogWriteError{Path: w.path, Err: err}
	}

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return &LogWriteError{Path: w.path, Err: err}
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return &LogWriteError{Path: w.path, Err: err}
	}
	if err := f.Sync(); err != nil {
		return &LogWriteError{Path: w.path, Err: err}
	}
	return nil
}

// ReadAll loads every record in file order. Malformed lines are skipped
// with a console warning so one bad write cannot poison the whole file.
func ReadAll(path string) ([]models.RunLog, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()
	return readEntries(f, path)
}

func readEntries(r io.Reader, path string) ([]models.RunLog, error) {
	var entries []models.RunLog
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry models.RunLog
		if err := json.Unmarshal(line, &entry); err != nil {
			log.Printf("[RUNLOG] skipping malformed line %d in %s: %v", lineNo, path, err)
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return entries, err
	}
	return entries, nil
}

// Tail returns the last n records.
func Tail(path string, n int) ([]models.RunLog, error) {
	entries, err := ReadAll(path)
	if err != nil {
		return nil, err
	}
	if n > 0 && len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries, nil
}
