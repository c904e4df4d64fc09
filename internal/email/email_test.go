package email

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radz2291/RZ-Property/internal/config"
)

type stubSender struct {
	err   error
	calls int
}

func (s *stubSender) Send(context.Context, []string, string, []byte) error {
	s.calls++
	return s.err
}

func TestBuildMessageAndKind(t *testing.T) {
	msg := BuildMessage("noreply@rz.test", []string{"agent@rz.test"}, "lead@example.com", "New inquiry: Lake View", KindInquiryNotification, "line1\nline2")
	s := string(msg)
	assert.Contains(t, s, "From: noreply@rz.test\r\n")
	assert.Contains(t, s, "Reply-To: lead@example.com\r\n")
	assert.Contains(t, s, "\r\n\r\nline1\r\nline2")
	assert.Equal(t, KindInquiryNotification, KindOf(msg))
	assert.Equal(t, "unknown", KindOf([]byte("Subject: x\r\n\r\nbody")))
}

func TestFanoutCallsEverySender(t *testing.T) {
	a := &stubSender{err: errors.New("smtp down")}
	b := &stubSender{}
	f := Fanout{a}.With(b).With(nil)
	require.Len(t, f, 2)

	err := f.Send(context.Background(), []string{"x@y.z"}, "s", []byte("m"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp down")
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)

	assert.Error(t, Fanout{}.Send(context.Background(), nil, "", nil))
}

func TestMailLogRecordsKind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mail", "out.log")
	l, err := NewMailLog(path)
	require.NoError(t, err)

	msg := BuildMessage("noreply@rz.test", []string{"a@b.c"}, "", "Hello", KindTest, "body")
	require.NoError(t, l.Send(context.Background(), []string{"a@b.c"}, "Hello", msg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "kind=test")
	assert.Contains(t, string(data), `subject="Hello"`)
	assert.Contains(t, string(data), "body")

	_, err = NewMailLog("  ")
	assert.Error(t, err)
}

func TestNewSMTPSenderFallsBackToLogging(t *testing.T) {
	s := NewSMTPSender(&config.Config{})
	_, ok := s.(*LoggingSender)
	assert.True(t, ok)
	assert.NoError(t, s.Send(context.Background(), []string{"a@b.c"}, "s", []byte("m")))
}
