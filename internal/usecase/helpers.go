// internal/usecase/helpers.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"wallet-sync-service/internal/domain"
)

// isNetworkError reports whether a ledger failure is transient.
// Only network-classified failures are ever retried.
func isNetworkError(err error) bool {
	if err == nil || isContextError(err) {
		return false
	}
	if errors.Is(err, domain.ErrNetwork) {
		return true
	}
	var ledgerErr *domain.LedgerError
	if errors.As(err, &ledgerErr) {
		return ledgerErr.IsNetwork()
	}
	return false
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// classifyFetchError maps a failed state or history fetch to network or generic.
// Context errors pass through unchanged.
func classifyFetchError(err error) error {
	switch {
	case err == nil:
		return nil
	case isContextError(err):
		return err
	case errors.Is(err, domain.ErrNetwork), errors.Is(err, domain.ErrGeneric):
		return err
	case isNetworkError(err):
		return fmt.Errorf("%w: %w", domain.ErrNetwork, err)
	default:
		return fmt.Errorf("%w: %w", domain.ErrGeneric, err)
	}
}

// classifySendError maps a broadcast failure to the closed send error set
func classifySendError(err error) error {
	if err == nil {
		return nil
	}
	if isContextError(err) {
		return err
	}

	var ledgerErr *domain.LedgerError
	if !errors.As(err, &ledgerErr) {
		return fmt.Errorf("%w: %w", domain.ErrGeneric, err)
	}

	code := ledgerErr.Code
	switch {
	case ledgerErr.IsNetwork():
		return fmt.Errorf("%w: %w", domain.ErrNetwork, err)
	case strings.HasPrefix(code, domain.LedgerCodeInvalidAddress):
		return fmt.Errorf("%w: %w", domain.ErrInvalidAddress, err)
	case strings.HasPrefix(code, domain.LedgerCodeDangerousTransaction):
		return fmt.Errorf("%w: %w", domain.ErrDestinationNotInitialized, err)
	case strings.HasPrefix(code, domain.LedgerCodeMessageTooLong):
		return fmt.Errorf("%w: %w", domain.ErrMessageTooLong, err)
	case strings.HasPrefix(code, domain.LedgerCodeNotEnoughFunds):
		return fmt.Errorf("%w: %w", domain.ErrNotEnoughFunds, err)
	default:
		return fmt.Errorf("%w: %w", domain.ErrGeneric, err)
	}
}

// errorOutcome is the metrics label for a failed operation
func errorOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case isContextError(err):
		return "cancelled"
	case errors.Is(err, domain.ErrNetwork):
		return "network"
	case errors.Is(err, domain.ErrInvalidAddress),
		errors.Is(err, domain.ErrDestinationNotInitialized),
		errors.Is(err, domain.ErrMessageTooLong),
		errors.Is(err, domain.ErrNotEnoughFunds):
		return "rejected"
	default:
		return "error"
	}
}

func shortKey(publicKey domain.WalletPublicKey) string {
	s := publicKey.String()
	if len(s) <= 12 {
		return s
	}
	return s[:6] + "..." + s[len(s)-6:]
}
