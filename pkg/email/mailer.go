package email

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// EmailSender sends a single e-mail.
type EmailSender interface {
	SendEmail(ctx context.Context, params SendEmailParams) error
}

// SendEmailParams describes one outgoing message. At least one of BodyHTML
// and BodyText is required.
type SendEmailParams struct {
	SendTo   string `json:"send_to"`
	Subject  string `json:"subject"`
	BodyHTML string `json:"body_html,omitempty"`
	BodyText string `json:"body_text,omitempty"`
	Tag      string `json:"tag,omitempty"`
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// IsValidAddress reports whether s looks like a deliverable e-mail address.
func IsValidAddress(s string) bool {
	return emailRegex.MatchString(strings.TrimSpace(s))
}

// Validate checks the parameters before they reach a provider.
func (p SendEmailParams) Validate() error {
	if strings.TrimSpace(p.SendTo) == "" {
		return fmt.Errorf("%w: SendTo is required", ErrInvalidParams)
	}
	if !IsValidAddress(p.SendTo) {
		return fmt.Errorf("%w: SendTo must be a valid email address", ErrInvalidParams)
	}
	if strings.TrimSpace(p.Subject) == "" {
		return fmt.Errorf("%w: Subject is required", ErrInvalidParams)
	}
	if strings.TrimSpace(p.BodyHTML) == "" && strings.TrimSpace(p.BodyText) == "" {
		return fmt.Errorf("%w: BodyHTML or BodyText is required", ErrInvalidParams)
	}
	return nil
}

// NewSender returns the Postmark client when it is configured and a
// DevSender writing to cfg.DevDir otherwise.
func NewSender(cfg Config) (EmailSender, error) {
	if cfg.UsesPostmark() {
		return NewPostmarkClient(cfg)
	}
	if cfg.DevDir == "" {
		return nil, fmt.Errorf("%w: EMAIL_DEV_DIR is required without Postmark tokens", ErrInvalidConfig)
	}
	return NewDevSender(cfg.DevDir), nil
}
