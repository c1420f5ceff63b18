package email

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// FileEmailSender appends every email to a file. Used as an archive next to the real sender.
type FileEmailSender struct {
	mu       sync.Mutex
	filePath string
}

// NewFileEmailSender creates a FileEmailSender, making sure the file's directory exists.
func NewFileEmailSender(filePath string) (*FileEmailSender, error) {
	if strings.TrimSpace(filePath) == "" {
		return nil, fmt.Errorf("email archive path cannot be empty")
	}

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory for email archive '%s': %w", dir, err)
	}
	return &FileEmailSender{filePath: filePath}, nil
}

func (s *FileEmailSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open email archive: %w", err)
	}
	defer file.Close()

	entry := fmt.Sprintf("--- %s to=%s subject=%q ---\n", time.Now().UTC().Format(time.RFC3339), strings.Join(to, ","), subject)
	buf := append([]byte(entry), rawMessage...)
	buf = append(buf, "\n--- end ---\n\n"...)
	if _, err := file.Write(buf); err != nil {
		return fmt.Errorf("failed to write email archive: %w", err)
	}
	return nil
}
