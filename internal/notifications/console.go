package notifications

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Console writes each update as a line, prefixed with a label. The transcode
// command uses it for local runs.
type Console struct {
	mu     sync.Mutex
	w      io.Writer
	prefix string
}

// NewConsole returns a Console writing to w.
func NewConsole(w io.Writer, label string) *Console {
	prefix := ""
	if label = strings.TrimSpace(label); label != "" {
		prefix = "[" + label + "] "
	}
	return &Console{w: w, prefix: prefix}
}

// Update implements Notifier.
func (c *Console) Update(_ context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	text = strings.ReplaceAll(strings.TrimSpace(text), "\n\n", "\n")
	_, err := fmt.Fprintf(c.w, "%s%s\n", c.prefix, text)
	return err
}
