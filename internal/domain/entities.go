package domain

import (
	"strings"
	"time"
)

// Account is a community member registered through the web signup flow.
// The bot never creates accounts, it only reads them.
type Account struct {
	ID              int64
	XHandle         string
	TelegramHandle  string
	HasKaitoYaps    bool
	XHandleReferral string
	JoinTime        time.Time
}

// IsLinked reports whether the account has an X handle attached.
func (a Account) IsLinked() bool {
	return strings.TrimSpace(a.XHandle) != ""
}

// Submission is an accepted tweet submission. Records are immutable once
// created; deletion is an admin-only operation.
type Submission struct {
	ID             string
	XHandle        string
	TelegramHandle string
	TweetURL       string
	TweetID        string
	SubmittedAt    time.Time
}

// ReviewJob is the payload pushed to the review queue for every accepted
// submission.
type ReviewJob struct {
	SubmissionID   string    `json:"submission_id"`
	XHandle        string    `json:"x_handle"`
	TelegramHandle string    `json:"telegram_handle"`
	TweetURL       string    `json:"tweet_url"`
	TweetID        string    `json:"tweet_id"`
	Author         string    `json:"author"`
	SubmittedAt    time.Time `json:"submitted_at"`
}
