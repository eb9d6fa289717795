package submission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"mavryk-submission-bot/internal/domain"
	"mavryk-submission-bot/internal/infra/metrics"
)

// Service is the admission pipeline: it runs the ordered checks that decide
// whether a tweet submission is accepted, persists accepted ones and hands
// them to the review queue.
type Service struct {
	accounts domain.AccountRepo
	ledger   domain.SubmissionRepo
	reviews  domain.ReviewQueue
	log      zerolog.Logger
	now      func() time.Time
}

// NewService creates the pipeline. The review queue may be nil when the
// caller has no use for review jobs.
func NewService(accounts domain.AccountRepo, ledger domain.SubmissionRepo, reviews domain.ReviewQueue, log zerolog.Logger) *Service {
	return &Service{
		accounts: accounts,
		ledger:   ledger,
		reviews:  reviews,
		log:      log,
		now:      time.Now,
	}
}

// Submit runs the admission checks in a fixed order and persists the
// submission when every check passes. Business rejections are the sentinel
// errors from the domain package; any other error is an infrastructure fault.
//
// Check order is an observable contract: handle present, URL shape, account
// exists, account linked, daily cap, duplicate URL. The cheap local checks
// run before any store lookup, and identity is established before the
// rate and duplicate checks that depend on it.
func (s *Service) Submit(ctx context.Context, telegramHandle, rawURL string) (domain.Submission, error) {
	sub, err := s.submit(ctx, telegramHandle, rawURL)
	metrics.IncSubmissionOutcome(outcomeLabel(err))
	return sub, err
}

func (s *Service) submit(ctx context.Context, telegramHandle, rawURL string) (domain.Submission, error) {
	handle := strings.TrimPrefix(strings.TrimSpace(telegramHandle), "@")
	if handle == "" {
		return domain.Submission{}, domain.ErrNoTelegramHandle
	}
	if !IsValidPostURL(rawURL) {
		return domain.Submission{}, domain.ErrInvalidTweetURL
	}
	// A link can match the accepted shapes yet carry a malformed status id,
	// e.g. /status/1abc. Without a numeric id there is no post to record.
	if ExtractPostID(rawURL) == "" {
		return domain.Submission{}, domain.ErrInvalidTweetURL
	}

	account, err := s.accounts.GetByTelegramHandle(ctx, handle)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return domain.Submission{}, domain.ErrAccountNotFound
		}
		return domain.Submission{}, fmt.Errorf("account lookup: %w", err)
	}
	if !account.IsLinked() {
		return domain.Submission{}, domain.ErrAccountNotLinked
	}

	now := s.now().UTC()
	day := now.Truncate(24 * time.Hour)
	submittedToday, err := s.ledger.HasSubmittedOn(ctx, handle, day)
	if err != nil {
		return domain.Submission{}, fmt.Errorf("daily cap check: %w", err)
	}
	if submittedToday {
		return domain.Submission{}, domain.ErrDailyCapReached
	}

	tweetURL := NormalizePostURL(rawURL)
	duplicate, err := s.ledger.ExistsDuplicate(ctx, handle, tweetURL)
	if err != nil {
		return domain.Submission{}, fmt.Errorf("duplicate check: %w", err)
	}
	if duplicate {
		return domain.Submission{}, domain.ErrDuplicateTweetURL
	}

	created, err := s.ledger.CreateSubmission(ctx, domain.Submission{
		XHandle:        account.XHandle,
		TelegramHandle: handle,
		TweetURL:       tweetURL,
		TweetID:        ExtractPostID(tweetURL),
		SubmittedAt:    now,
	})
	if err != nil {
		// The storage uniqueness constraints can still fire when two
		// submissions race past the checks above.
		if errors.Is(err, domain.ErrDuplicateTweetURL) || errors.Is(err, domain.ErrDailyCapReached) {
			return domain.Submission{}, err
		}
		return domain.Submission{}, fmt.Errorf("create submission: %w", err)
	}

	s.enqueueReview(ctx, created)
	return created, nil
}

// enqueueReview pushes the accepted submission to the reviewers. The
// submission is already persisted at this point, so a queue failure is
// reported but does not turn the acceptance into an error.
func (s *Service) enqueueReview(ctx context.Context, sub domain.Submission) {
	if s.reviews == nil {
		return
	}
	job := domain.ReviewJob{
		SubmissionID:   sub.ID,
		XHandle:        sub.XHandle,
		TelegramHandle: sub.TelegramHandle,
		TweetURL:       sub.TweetURL,
		TweetID:        sub.TweetID,
		Author:         ExtractAuthor(sub.TweetURL),
		SubmittedAt:    sub.SubmittedAt,
	}
	if err := s.reviews.Enqueue(ctx, job); err != nil {
		metrics.ReviewEnqueueErrors.Inc()
		s.log.Error().Err(err).Str("submission_id", sub.ID).Msg("review queue enqueue failed")
	}
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, domain.ErrNoTelegramHandle):
		return "no_handle"
	case errors.Is(err, domain.ErrInvalidTweetURL):
		return "invalid_url"
	case errors.Is(err, domain.ErrAccountNotFound):
		return "unknown_user"
	case errors.Is(err, domain.ErrAccountNotLinked):
		return "not_linked"
	case errors.Is(err, domain.ErrDailyCapReached):
		return "daily_cap"
	case errors.Is(err, domain.ErrDuplicateTweetURL):
		return "duplicate_url"
	default:
		return "infrastructure_error"
	}
}
