package github

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/go-github/v81/github"

	"github.com/atharvvvg/LLMRepo/internal/apperr"
)

// mapError classifies a go-github error into the shared taxonomy so the
// orchestrator and API layer can message each failure mode distinctly.
func mapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Wrap(apperr.KindTimeout, msg, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return apperr.Wrap(apperr.KindRateLimited, msg, err)
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return apperr.Wrap(apperr.KindRateLimited, msg, err)
	}

	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		switch respErr.Response.StatusCode {
		case http.StatusNotFound, http.StatusConflict: // 409 is GitHub's "empty repository"
			return apperr.Wrap(apperr.KindNotFound, msg, err)
		case http.StatusUnauthorized, http.StatusForbidden:
			return apperr.Wrap(apperr.KindAccessDenied, msg, err)
		case http.StatusUnprocessableEntity:
			return apperr.Wrap(apperr.KindInvalidRequest, msg, err)
		}
	}

	return apperr.Wrap(apperr.KindUpstreamUnavailable, msg, err)
}
