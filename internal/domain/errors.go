package domain

import "errors"

// Business outcomes of the admission pipeline. These are expected results,
// matched with errors.Is by callers; anything else coming out of Submit is an
// infrastructure fault.
var (
	ErrNoTelegramHandle  = errors.New("telegram handle is missing")
	ErrInvalidTweetURL   = errors.New("tweet url is not a valid x/twitter post link")
	ErrAccountNotFound   = errors.New("account not found")
	ErrAccountNotLinked  = errors.New("account has no linked x handle")
	ErrDailyCapReached   = errors.New("daily submission limit reached")
	ErrDuplicateTweetURL = errors.New("tweet already submitted")

	// ErrSubmissionNotFound is returned by ledger lookups for unknown ids.
	ErrSubmissionNotFound = errors.New("submission not found")
)
