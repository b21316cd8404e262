package token

import "errors"

var (
	ErrInvalidToken     = errors.New("invalid token format")
	ErrSignatureInvalid = errors.New("signature mismatch")
	ErrExpired          = errors.New("token expired")
	ErrEmptySecret      = errors.New("token secret is empty")
	ErrEncode           = errors.New("failed to encode token payload")
)
