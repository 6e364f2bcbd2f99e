// internal/domain/errors.go
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Generic
var (
	ErrGeneric = errors.New("generic error")
	ErrNetwork = errors.New("network error")
)

// Ledger rejections surfaced verbatim to callers
var (
	ErrInvalidAddress            = errors.New("invalid address")
	ErrDestinationNotInitialized = errors.New("destination is not initialized")
	ErrMessageTooLong            = errors.New("message too long")
	ErrNotEnoughFunds            = errors.New("not enough funds")
)

// Keychain
var (
	ErrSecretDecryptionFailed = errors.New("secret decryption failed")
	ErrPublicKeyMismatch      = errors.New("keychain public key mismatch")
	ErrCancelled              = errors.New("cancelled")
)

// Store / requests
var (
	ErrWalletNotFound = errors.New("wallet not found")
	ErrInvalidSubject = errors.New("invalid state subject")
)

// Ledger error codes. Only the prefix of a code is significant.
const (
	LedgerCodeNetworkPrefix        = "LITE_SERVER_"
	LedgerCodeNetwork              = "LITE_SERVER_NETWORK"
	LedgerCodeInvalidAddress       = "INVALID_ACCOUNT_ADDRESS"
	LedgerCodeDangerousTransaction = "DANGEROUS_TRANSACTION"
	LedgerCodeMessageTooLong       = "MESSAGE_TOO_LONG"
	LedgerCodeNotEnoughFunds       = "NOT_ENOUGH_FUNDS"
)

// LedgerError is a failure reported by the ledger client
type LedgerError struct {
	Code    string
	Message string
}

func (e *LedgerError) Error() string {
	if e.Message == "" || e.Message == e.Code {
		return "ledger: " + e.Code
	}
	return fmt.Sprintf("ledger: %s: %s", e.Code, e.Message)
}

// IsNetwork reports whether the failure is transport or availability related
func (e *LedgerError) IsNetwork() bool {
	return strings.HasPrefix(e.Code, LedgerCodeNetworkPrefix)
}

// NewLedgerErrorFromText builds a LedgerError from a free-text description,
// taking the leading token as the code
func NewLedgerErrorFromText(text string) *LedgerError {
	text = strings.TrimSpace(text)
	code := text
	if i := strings.IndexAny(text, " :"); i >= 0 {
		code = text[:i]
	}
	return &LedgerError{Code: code, Message: text}
}
