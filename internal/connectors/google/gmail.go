package google

import (
	"context"
	"encoding/base64"
	"fmt"

	"google.golang.org/api/gmail/v1"

	"github.com/koyomi/koyomi/internal/core/domain"
	"github.com/koyomi/koyomi/internal/logger"
	"github.com/koyomi/koyomi/internal/ratelimit"
)

// GmailSender sends notification mail through the Gmail API, gating
// every call on the shared gmail limiter.
type GmailSender struct {
	svc     *gmail.Service
	limiter *ratelimit.Limiter
}

// NewGmailSender wires a Gmail service to the registry's gmail limiter.
func NewGmailSender(svc *gmail.Service, registry *ratelimit.Registry) (*GmailSender, error) {
	limiter, err := registry.Get(domain.APIGmail)
	if err != nil {
		return nil, err
	}
	return &GmailSender{svc: svc, limiter: limiter}, nil
}

// Send delivers one RFC 2822 message as the authenticated user.
// raw is the full message including headers.
func (s *GmailSender) Send(ctx context.Context, raw []byte) (string, error) {
	s.limiter.Gate()

	msg := &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(raw),
	}
	sent, err := s.svc.Users.Messages.Send("me", msg).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("send mail: %w", err)
	}
	logger.Debug("sent mail %s", sent.Id)
	return sent.Id, nil
}
