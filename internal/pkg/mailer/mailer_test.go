package mailer

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/yizeng/gab/gin/gorm/chatboard/internal/config"
	"github.com/yizeng/gab/gin/gorm/chatboard/internal/domain"
)

type recordingSender struct {
	mu    sync.Mutex
	sent  []*gomail.Message
	err   error
	delay time.Duration
}

func (s *recordingSender) DialAndSend(m ...*gomail.Message) error {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, m...)

	return s.err
}

func testSMTPConfig() *config.SMTPConfig {
	return &config.SMTPConfig{
		Host:          "smtp.example.com",
		Port:          465,
		Username:      "board@example.com",
		SenderName:    "紧急联系人",
		SenderAddress: "board@example.com",
		Recipient:     "owner@example.com",
		Subject:       "紧急消息",
		Timeout:       time.Second,
	}
}

func TestNotify_Success(t *testing.T) {
	sender := &recordingSender{}
	m := NewWithSender(testSMTPConfig(), sender)

	res := m.Notify(context.Background(), "<b>hello</b>")
	assert.Equal(t, domain.NotifySuccess(), res)

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, []string{"owner@example.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"紧急消息"}, msg.GetHeader("Subject"))
	require.Len(t, msg.GetHeader("From"), 1)
	assert.Contains(t, msg.GetHeader("From")[0], "<board@example.com>")

	var buf bytes.Buffer
	_, err := msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Content-Type: text/html")
	assert.Contains(t, buf.String(), "<b>hello</b>")
}

func TestNotify_RelayError(t *testing.T) {
	sender := &recordingSender{err: errors.New("535 Authentication failed")}
	m := NewWithSender(testSMTPConfig(), sender)

	res := m.Notify(context.Background(), "hello")
	assert.Equal(t, domain.NotifyTypeError, res.Type)
	assert.Contains(t, res.Message, "535 Authentication failed")
}

func TestNotify_NoRecipient(t *testing.T) {
	conf := testSMTPConfig()
	conf.Recipient = ""
	sender := &recordingSender{}

	res := NewWithSender(conf, sender).Notify(context.Background(), "hello")
	assert.False(t, res.OK())
	assert.Contains(t, res.Message, ErrNoRecipient.Error())
	assert.Empty(t, sender.sent)
}

func TestNotify_Timeout(t *testing.T) {
	conf := testSMTPConfig()
	conf.Timeout = 20 * time.Millisecond
	sender := &recordingSender{delay: 500 * time.Millisecond}

	start := time.Now()
	res := NewWithSender(conf, sender).Notify(context.Background(), "hello")

	assert.False(t, res.OK())
	assert.Contains(t, res.Message, ErrNotifyCancelled.Error())
	assert.Less(t, time.Since(start), 400*time.Millisecond)
}

func TestSend_WrapsErrNotify(t *testing.T) {
	m := NewWithSender(testSMTPConfig(), &recordingSender{err: errors.New("dial tcp: connection refused")})

	err := m.send(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrNotify)
}

func TestNew_UsesGomailDialer(t *testing.T) {
	m := New(testSMTPConfig())

	d, ok := m.sender.(*gomail.Dialer)
	require.True(t, ok)
	assert.Equal(t, "smtp.example.com", d.Host)
	assert.Equal(t, 465, d.Port)
	assert.Equal(t, "board@example.com", d.Username)
}
