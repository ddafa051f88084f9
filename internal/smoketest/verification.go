package smoketest

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/inforum/diagnostico/pkg/logger"
)

// Verification errors.
var (
	ErrMismatch = errors.New("verdict mismatch")
	ErrFailures = errors.New("submissions failed")
)

// checkResult compares one result with its expected verdict. A nil return
// means the service answered 200 with the verdict the rules predict.
func checkResult(r Result) error {
	if r.Err != nil {
		return r.Err
	}
	if r.Status != http.StatusOK || !r.Response.OK {
		return fmt.Errorf("status %d: %s", r.Status, r.Response.Error)
	}
	if r.Response.Qualifies != r.Case.Expected.Qualifies {
		return fmt.Errorf("%w: got qualifies=%t want %t", ErrMismatch, r.Response.Qualifies, r.Case.Expected.Qualifies)
	}
	if r.Response.SubmissionID == "" {
		return fmt.Errorf("%w: missing submission id", ErrMismatch)
	}
	return nil
}

// verifyResults tallies results into stats and fails when any submission
// failed or disagreed with its expected verdict.
func verifyResults(ctx context.Context, config *Config, results []Result, stats *Stats) error {
	seen := make(map[string]struct{}, len(results))
	for _, r := range results {
		stats.Warnings += len(r.Response.Warnings)
		err := checkResult(r)
		switch {
		case err == nil:
			stats.Succeeded++
			if _, dup := seen[r.Response.SubmissionID]; dup {
				stats.Mismatched++
				logger.Get().Warn(ctx, "duplicate submission id", logger.String("submissionID", r.Response.SubmissionID))
			}
			seen[r.Response.SubmissionID] = struct{}{}
		case errors.Is(err, ErrMismatch):
			stats.Mismatched++
			logger.Get().Warn(ctx, "verdict mismatch",
				logger.String("email", r.Case.Payload.Email),
				logger.Error(err))
		case r.Status == http.StatusBadRequest:
			stats.Rejected++
			logger.Get().Warn(ctx, "submission rejected", logger.String("email", r.Case.Payload.Email), logger.Error(err))
		default:
			stats.Failed++
			if config.Verbose {
				logger.Get().Warn(ctx, "submission failed", logger.String("email", r.Case.Payload.Email), logger.Error(err))
			}
		}
	}

	logger.Get().Info(ctx, "verification completed",
		logger.Int("succeeded", stats.Succeeded),
		logger.Int("mismatched", stats.Mismatched),
		logger.Int("rejected", stats.Rejected),
		logger.Int("failed", stats.Failed),
		logger.Int("warnings", stats.Warnings))

	var errs []error
	if stats.Mismatched > 0 {
		errs = append(errs, fmt.Errorf("%w: %d", ErrMismatch, stats.Mismatched))
	}
	if stats.Failed+stats.Rejected > 0 {
		errs = append(errs, fmt.Errorf("%w: %d", ErrFailures, stats.Failed+stats.Rejected))
	}
	return errors.Join(errs...)
}
