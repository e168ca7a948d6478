package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// DevSender saves messages as HTML and JSON files instead of sending them.
type DevSender struct {
	dir string
}

// NewDevSender creates a sender writing into dir.
// The directory will be created if it doesn't exist.
func NewDevSender(dir string) *DevSender {
	return &DevSender{dir: dir}
}

type messageMetadata struct {
	Timestamp string `json:"timestamp"`
	To        string `json:"to"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	Tag       string `json:"tag,omitempty"`
}

func (d *DevSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("%w: failed to create directory: %v", ErrSendFailed, err)
	}

	now := time.Now()
	identifier := msg.Tag
	if identifier == "" {
		identifier = msg.Subject
	}
	// Nanoseconds keep back-to-back sends from overwriting each other.
	base := fmt.Sprintf("%s_%09d_%s", now.Format("2006_01_02_150405"), now.Nanosecond(), sanitizeFilename(identifier))

	html, err := renderHTML(ctx, msg)
	if err != nil {
		return fmt.Errorf("%w: failed to render message: %v", ErrSendFailed, err)
	}
	if err := os.WriteFile(filepath.Join(d.dir, base+".html"), []byte(html), 0o644); err != nil {
		return fmt.Errorf("%w: failed to write HTML file: %v", ErrSendFailed, err)
	}

	data, err := json.MarshalIndent(messageMetadata{
		Timestamp: now.Format(time.RFC3339),
		To:        msg.To,
		Subject:   msg.Subject,
		Body:      msg.Body,
		Tag:       msg.Tag,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: failed to marshal metadata: %v", ErrSendFailed, err)
	}
	if err := os.WriteFile(filepath.Join(d.dir, base+".json"), data, 0o644); err != nil {
		return fmt.Errorf("%w: failed to write JSON file: %v", ErrSendFailed, err)
	}
	return nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = unsafeFilenameChars.ReplaceAllString(s, "")
	const maxLength = 100
	if len(s) > maxLength {
		s = s[:maxLength]
	}
	if s == "" {
		s = "message"
	}
	return strings.ToLower(s)
}
