package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"garden_buddy/internal/logger"
	"garden_buddy/pkg"

	"github.com/bytedance/sonic"
)

var htmlTag = regexp.MustCompile(`(?i)<br\s*/?>|</?[^>]+(>|$)`)

// ExportWriter writes user-facing export files into per-user directories
type ExportWriter struct {
	baseDir string
}

// ExportInfo describes one export file on disk
type ExportInfo struct {
	Path      string    `json:"path"`
	SizeBytes int64     `json:"size_bytes"`
	ModTime   time.Time `json:"mod_time"`
}

// NewExportWriter creates a writer rooted at baseDir
func NewExportWriter(baseDir string) *ExportWriter {
	return &ExportWriter{baseDir: baseDir}
}

func (e *ExportWriter) userDir(userID string) (string, error) {
	dir := filepath.Join(e.baseDir, userID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	return dir, nil
}

// WriteMemory dumps the full garden memory as indented JSON and returns the file path
func (e *ExportWriter) WriteMemory(userID string, memory *pkg.GardenMemory, now time.Time) (string, error) {
	dir, err := e.userDir(userID)
	if err != nil {
		return "", err
	}

	data, err := sonic.ConfigStd.MarshalIndent(memory, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal garden memory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("gardenbuddy-%s.json", now.Format("2006-01-02")))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	logger.Info().Str("user_id", userID).Str("path", path).Msg("garden memory exported")
	return path, nil
}

// WriteChatHistory renders the chat history as plain text and returns the file path
func (e *ExportWriter) WriteChatHistory(userID string, history []pkg.ChatMessage, now time.Time) (string, error) {
	if len(history) == 0 {
		return "", fmt.Errorf("no chat history to export")
	}
	dir, err := e.userDir(userID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Garden Buddy - Chat History\n")
	fmt.Fprintf(&b, "Exported on: %s\n\n----------------------------------------\n\n", now.Format(time.RFC1123))
	for _, msg := range history {
		sender := "Garden Buddy"
		if msg.Role == "user" {
			sender = "You"
		}
		content := htmlTag.ReplaceAllStringFunc(msg.Content, func(tag string) string {
			if strings.HasPrefix(strings.ToLower(tag), "<br") {
				return "\n"
			}
			return ""
		})
		fmt.Fprintf(&b, "[%s] %s:\n%s\n\n", msg.Timestamp.Format(time.DateTime), sender, content)
	}

	path := filepath.Join(dir, fmt.Sprintf("gardenbuddy-chat-history-%s.txt", now.Format("2006-01-02")))
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return "", fmt.Errorf("failed to write chat history: %w", err)
	}
	return path, nil
}

// ListExports returns a user's export files, newest first
func (e *ExportWriter) ListExports(userID string) ([]ExportInfo, error) {
	entries, err := os.ReadDir(filepath.Join(e.baseDir, userID))
	if err != nil {
		if os.IsNotExist(err) {
			return []ExportInfo{}, nil
		}
		return nil, fmt.Errorf("failed to read export directory: %w", err)
	}

	infos := make([]ExportInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		infos = append(infos, ExportInfo{
			Path:      filepath.Join(e.baseDir, userID, entry.Name()),
			SizeBytes: info.Size(),
			ModTime:   info.ModTime(),
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].ModTime.After(infos[j].ModTime) })
	return infos, nil
}

// CleanupOldExports removes export files older than maxAge and reports how many went
func (e *ExportWriter) CleanupOldExports(userID string, maxAge time.Duration, now time.Time) (int, error) {
	infos, err := e.ListExports(userID)
	if err != nil {
		return 0, err
	}

	cutoff := now.Add(-maxAge)
	removed := 0
	for _, info := range infos {
		if info.ModTime.Before(cutoff) {
			if err := os.Remove(info.Path); err != nil {
				return removed, fmt.Errorf("failed to remove %s: %w", info.Path, err)
			}
			removed++
		}
	}

	if removed > 0 {
		logger.Info().Str("user_id", userID).Int("removed", removed).Msg("cleaned up old exports")
	}
	return removed, nil
}
