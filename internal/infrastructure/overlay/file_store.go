package overlay

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	sonic "github.com/bytedance/sonic"
	"github.com/valyala/bytebufferpool"

	"github.com/drillscope/panel-api/internal/domain/assignment"
	"github.com/drillscope/panel-api/internal/platform/logging"
)

// FileStore persists overlay entries as one JSON document per line. The file
// is append-only during normal operation; only Prune rewrites it. A corrupt
// line is skipped and counted, never fatal: losing one entry must not take
// the rest of the overlay down with it.
type FileStore struct {
	mu     sync.Mutex
	path   string
	logger *logging.Logger
}

func NewFileStore(path string, logger *logging.Logger) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("overlay file path is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create overlay directory: %w", err)
	}
	return &FileStore{path: path, logger: logger}, nil
}

func (s *FileStore) Append(ctx context.Context, entry assignment.OverlayEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	line, err := sonic.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode overlay entry: %w", err)
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	_, _ = buf.Write(line)
	_ = buf.WriteByte('\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open overlay file: %w", err)
	}
	defer file.Close()

	// One write call per entry keeps concurrent appends line-atomic.
	if _, err := file.Write(buf.B); err != nil {
		return fmt.Errorf("append overlay entry: %w", err)
	}
	return nil
}

func (s *FileStore) ListByEvent(ctx context.Context, eventID string) ([]assignment.OverlayEntry, int, error) {
	s.mu.Lock()
	entries, corrupt, err := s.readAll(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, 0, err
	}

	var out []assignment.OverlayEntry
	for _, entry := range entries {
		if entry.EventID == eventID {
			out = append(out, entry)
		}
	}
	return out, corrupt, nil
}

// Prune removes one person from every entry of an event and rewrites the
// file through a temp-file rename so a crash mid-prune cannot truncate it.
// Corrupt lines do not survive the rewrite; they are unreadable either way.
func (s *FileStore) Prune(ctx context.Context, eventID, personID string) error {
	if eventID == "" || personID == "" {
		return fmt.Errorf("event id and person id are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, corrupt, err := s.readAll(ctx)
	if err != nil {
		return err
	}
	if corrupt > 0 {
		s.logger.WarnContext(ctx, "dropping corrupt overlay lines during prune",
			"path", s.path,
			"corrupt", corrupt,
		)
	}

	kept := make([]assignment.OverlayEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.EventID == eventID {
			entry.Judges = removeID(entry.Judges, personID)
			entry.Organizers = removeID(entry.Organizers, personID)
			if len(entry.Judges) == 0 && len(entry.Organizers) == 0 {
				continue
			}
		}
		kept = append(kept, entry)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".overlay-*")
	if err != nil {
		return fmt.Errorf("create overlay temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	writer := bufio.NewWriter(tmp)
	for _, entry := range kept {
		line, err := sonic.Marshal(entry)
		if err != nil {
			tmp.Close()
			return fmt.Errorf("encode overlay entry: %w", err)
		}
		if _, err := writer.Write(append(line, '\n')); err != nil {
			tmp.Close()
			return fmt.Errorf("write overlay temp file: %w", err)
		}
	}
	if err := writer.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush overlay temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close overlay temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace overlay file: %w", err)
	}
	return nil
}

func (s *FileStore) readAll(ctx context.Context) ([]assignment.OverlayEntry, int, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("read overlay file: %w", err)
	}

	var entries []assignment.OverlayEntry
	corrupt := 0

	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var entry assignment.OverlayEntry
		if err := sonic.Unmarshal(line, &entry); err != nil {
			corrupt++
			continue
		}
		if err := entry.Validate(); err != nil {
			corrupt++
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("scan overlay file: %w", err)
	}

	if corrupt > 0 {
		s.logger.WarnContext(ctx, "skipped corrupt overlay lines",
			"path", s.path,
			"corrupt", corrupt,
		)
	}
	return entries, corrupt, nil
}

func removeID(ids []string, personID string) []string {
	out := ids[:0]
	for _, id := range ids {
		if id != personID {
			out = append(out, id)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
