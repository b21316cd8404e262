package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

const sigSize = 16

// Signer issues and verifies tokens of the form base64url(json).base64url(mac).
// The MAC is a truncated HMAC-SHA256 over the JSON envelope.
type Signer struct {
	secret []byte
	now    func() time.Time
}

// SignerOption configures a Signer.
type SignerOption func(*Signer)

// WithClock overrides the time source used for expiry.
func WithClock(now func() time.Time) SignerOption {
	return func(s *Signer) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSigner creates a Signer. The secret must not be empty.
func NewSigner(secret string, opts ...SignerOption) (*Signer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	s := &Signer{secret: []byte(secret), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

type envelope[T any] struct {
	Payload T     `json:"p"`
	Expires int64 `json:"exp,omitempty"`
}

// Sign encodes payload into a token valid for ttl. A ttl <= 0 never expires.
func Sign[T any](s *Signer, payload T, ttl time.Duration) (string, error) {
	env := envelope[T]{Payload: payload}
	if ttl > 0 {
		env.Expires = s.now().Add(ttl).Unix()
	}
	data, err := json.Marshal(env)
	if err != nil {
		return "", errors.Join(ErrEncode, err)
	}
	return base64.RawURLEncoding.EncodeToString(data) + "." +
		base64.RawURLEncoding.EncodeToString(s.mac(data)), nil
}

// Verify checks the signature and expiry of tok and decodes its payload.
func Verify[T any](s *Signer, tok string) (T, error) {
	var zero T
	body, sig, ok := strings.Cut(tok, ".")
	if !ok || body == "" || sig == "" {
		return zero, ErrInvalidToken
	}
	data, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return zero, errors.Join(ErrInvalidToken, err)
	}
	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return zero, errors.Join(ErrInvalidToken, err)
	}
	if subtle.ConstantTimeCompare(got, s.mac(data)) != 1 {
		return zero, ErrSignatureInvalid
	}

	var env envelope[T]
	if err := json.Unmarshal(data, &env); err != nil {
		return zero, errors.Join(ErrInvalidToken, err)
	}
	if env.Expires > 0 && s.now().Unix() > env.Expires {
		return zero, ErrExpired
	}
	return env.Payload, nil
}

func (s *Signer) mac(data []byte) []byte {
	h := hmac.New(sha256.New, s.secret)
	h.Write(data)
	return h.Sum(nil)[:sigSize]
}
