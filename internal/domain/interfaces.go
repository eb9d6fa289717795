package domain

import (
	"context"
	"time"
)

// AccountRepo is the user directory.
type AccountRepo interface {
	// GetByTelegramHandle matches the handle case-insensitively and returns
	// ErrAccountNotFound when no record exists.
	GetByTelegramHandle(ctx context.Context, telegramHandle string) (Account, error)
	ListAccounts(ctx context.Context, limit, offset int) ([]Account, error)
	DeleteAccount(ctx context.Context, id int64) error
}

// SubmissionRepo is the submission ledger.
type SubmissionRepo interface {
	// ExistsDuplicate reports whether the handle (case-insensitive) already
	// submitted the exact canonical URL.
	ExistsDuplicate(ctx context.Context, telegramHandle, tweetURL string) (bool, error)
	// HasSubmittedOn reports whether the handle has a submission inside the
	// calendar day starting at day (UTC midnight, computed by the caller).
	HasSubmittedOn(ctx context.Context, telegramHandle string, day time.Time) (bool, error)
	CreateSubmission(ctx context.Context, sub Submission) (Submission, error)
	GetSubmission(ctx context.Context, id string) (Submission, error)
	ListSubmissions(ctx context.Context, limit, offset int) ([]Submission, error)
	ListSubmissionsByHandle(ctx context.Context, telegramHandle string, limit, offset int) ([]Submission, error)
	DeleteSubmission(ctx context.Context, id string) error
}

// ReviewQueue carries accepted submissions to the review workers.
type ReviewQueue interface {
	Enqueue(ctx context.Context, job ReviewJob) error
	// Pop blocks until a job is available or ctx is cancelled.
	Pop(ctx context.Context) (ReviewJob, error)
}

// Cache is a simple TTL byte store.
type Cache interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
}
