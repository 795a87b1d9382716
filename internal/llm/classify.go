package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"promptlab/internal/apperr"
)

// credentialMarker is how the Gemini API reports a revoked or unknown key.
const credentialMarker = "Requested entity was not found"

// Classify maps a raw backend failure onto the error taxonomy.
// Already classified errors pass through unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if apperr.KindOf(err) != "" {
		return err
	}
	if strings.Contains(err.Error(), credentialMarker) {
		return apperr.CredentialExpired(err)
	}
	if errors.Is(err, context.Canceled) {
		return apperr.External(err, false)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.External(err, true)
	}
	// Network failures and anything unrecognized stay retryable.
	return apperr.External(err, true)
}

// ClassifyStatus maps an HTTP status reported by the backend.
func ClassifyStatus(status int, err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), credentialMarker) {
		return apperr.CredentialExpired(err)
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return apperr.CredentialExpired(err)
	case status == http.StatusTooManyRequests || status == http.StatusRequestTimeout:
		return apperr.External(err, true)
	case status >= 500:
		return apperr.External(err, true)
	case status >= 400:
		return apperr.External(err, false)
	default:
		return Classify(err)
	}
}
