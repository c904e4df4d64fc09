package email

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Fanout delivers every message through each of its senders. A failing sender
// does not stop the others; all failures are joined into the returned error.
type Fanout []Sender

// With returns a copy of f extended by s; nil senders are ignored.
func (f Fanout) With(s Sender) Fanout {
	if s == nil {
		return f
	}
	out := make(Fanout, 0, len(f)+1)
	out = append(out, f...)
	return append(out, s)
}

func (f Fanout) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	if len(f) == 0 {
		return errors.New("email fanout has no senders")
	}
	var failures []error
	for _, s := range f {
		if err := s.Send(ctx, to, subject, rawMessage); err != nil {
			failures = append(failures, err)
		}
	}
	if err := errors.Join(failures...); err != nil {
		return fmt.Errorf("deliver %q: %w", subject, err)
	}
	return nil
}

// MailLog appends a record of every outgoing message to a local file, tagged
// with the message kind so notification mail can be told apart from tests.
type MailLog struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewMailLog prepares path, creating its directory.
func NewMailLog(path string) (*MailLog, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("mail log path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create mail log directory: %w", err)
	}
	return &MailLog{path: path, now: time.Now}, nil
}

func (l *MailLog) Send(_ context.Context, to []string, subject string, rawMessage []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open mail log: %w", err)
	}
	defer f.Close()

	_, err = fmt.Fprintf(f, "=== %s kind=%s to=%s subject=%q\n%s\n=== end\n\n",
		l.now().UTC().Format(time.RFC3339), KindOf(rawMessage), strings.Join(to, ","), subject, rawMessage)
	if err != nil {
		return fmt.Errorf("write mail log: %w", err)
	}
	return nil
}
