// Package token signs small JSON payloads into URL-safe, expiring tokens.
// It backs the one-click unsubscribe links embedded in notification e-mails.
//
//	s, _ := token.NewSigner(secret)
//	code, _ := token.Sign(s, payload, 48*time.Hour)
//	payload, err := token.Verify[Payload](s, code)
package token
