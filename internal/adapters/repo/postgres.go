package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"mavryk-submission-bot/internal/domain"
	"mavryk-submission-bot/internal/infra/metrics"
)

// Postgres implements the account directory and the submission ledger on
// pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var (
	_ domain.AccountRepo    = (*Postgres)(nil)
	_ domain.SubmissionRepo = (*Postgres)(nil)
)

// NewPostgres creates the DB adapter.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// GetByTelegramHandle implements domain.AccountRepo. The match is
// case-insensitive and backed by the unique index on lower(telegram_handle).
func (p *Postgres) GetByTelegramHandle(ctx context.Context, telegramHandle string) (domain.Account, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var (
		account  domain.Account
		referral sql.NullString
	)
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT id, x_handle, telegram_handle, has_kaito_yaps, x_handle_referral, join_time
FROM accounts WHERE lower(telegram_handle) = lower($1)
`, telegramHandle).Scan(&account.ID, &account.XHandle, &account.TelegramHandle, &account.HasKaitoYaps, &referral, &account.JoinTime)
	metrics.ObserveNetworkRequest("postgres", "accounts_get_by_handle", "accounts", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	if err != nil {
		return domain.Account{}, err
	}
	if referral.Valid {
		account.XHandleReferral = referral.String
	}
	return account, nil
}

// ListAccounts returns accounts ordered by most recent signup.
func (p *Postgres) ListAccounts(ctx context.Context, limit, offset int) ([]domain.Account, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, x_handle, telegram_handle, has_kaito_yaps, x_handle_referral, join_time
FROM accounts ORDER BY join_time DESC LIMIT $1 OFFSET $2
`, limit, offset)
	metrics.ObserveNetworkRequest("postgres", "accounts_list", "accounts", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var (
			account  domain.Account
			referral sql.NullString
		)
		if err := rows.Scan(&account.ID, &account.XHandle, &account.TelegramHandle, &account.HasKaitoYaps, &referral, &account.JoinTime); err != nil {
			return nil, err
		}
		if referral.Valid {
			account.XHandleReferral = referral.String
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

// DeleteAccount removes an account record.
func (p *Postgres) DeleteAccount(ctx context.Context, id int64) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	res, err := p.pool.Exec(ctx, `DELETE FROM accounts WHERE id=$1`, id)
	metrics.ObserveNetworkRequest("postgres", "accounts_delete", "accounts", start, err)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// ExistsDuplicate implements domain.SubmissionRepo.
func (p *Postgres) ExistsDuplicate(ctx context.Context, telegramHandle, tweetURL string) (bool, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var exists bool
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT EXISTS (
    SELECT 1 FROM submissions
    WHERE lower(telegram_handle) = lower($1) AND tweet_url = $2
)
`, telegramHandle, tweetURL).Scan(&exists)
	metrics.ObserveNetworkRequest("postgres", "submissions_exists_duplicate", "submissions", start, err)
	return exists, err
}

// HasSubmittedOn reports whether the handle has a submission inside the
// calendar day starting at day.
func (p *Postgres) HasSubmittedOn(ctx context.Context, telegramHandle string, day time.Time) (bool, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var exists bool
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT EXISTS (
    SELECT 1 FROM submissions
    WHERE lower(telegram_handle) = lower($1)
      AND submitted_at >= $2 AND submitted_at < $2 + interval '1 day'
)
`, telegramHandle, day).Scan(&exists)
	metrics.ObserveNetworkRequest("postgres", "submissions_has_submitted_on", "submissions", start, err)
	return exists, err
}

// CreateSubmission inserts an accepted submission. Unique-index violations
// map back to the business errors so a race that slipped past the pipeline
// checks is reported the same way as one the checks caught.
func (p *Postgres) CreateSubmission(ctx context.Context, sub domain.Submission) (domain.Submission, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	sub.ID = uuid.NewString()
	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO submissions (id, x_handle, telegram_handle, tweet_url, tweet_id, submitted_at)
VALUES ($1, $2, $3, $4, $5, $6)
`, sub.ID, sub.XHandle, sub.TelegramHandle, sub.TweetURL, sub.TweetID, sub.SubmittedAt)
	metrics.ObserveNetworkRequest("postgres", "submissions_insert", "submissions", start, err)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			switch pgErr.ConstraintName {
			case "submissions_handle_url_key":
				return domain.Submission{}, domain.ErrDuplicateTweetURL
			case "submissions_handle_day_key":
				return domain.Submission{}, domain.ErrDailyCapReached
			}
		}
		return domain.Submission{}, err
	}
	return sub, nil
}

// GetSubmission returns a single record by id.
func (p *Postgres) GetSubmission(ctx context.Context, id string) (domain.Submission, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var sub domain.Submission
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT id, x_handle, telegram_handle, tweet_url, tweet_id, submitted_at
FROM submissions WHERE id=$1
`, id).Scan(&sub.ID, &sub.XHandle, &sub.TelegramHandle, &sub.TweetURL, &sub.TweetID, &sub.SubmittedAt)
	metrics.ObserveNetworkRequest("postgres", "submissions_get", "submissions", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	return sub, err
}

// ListSubmissions returns submissions ordered by recency.
func (p *Postgres) ListSubmissions(ctx context.Context, limit, offset int) ([]domain.Submission, error) {
	return p.listSubmissions(ctx, `
SELECT id, x_handle, telegram_handle, tweet_url, tweet_id, submitted_at
FROM submissions ORDER BY submitted_at DESC LIMIT $1 OFFSET $2
`, "submissions_list", limit, offset)
}

// ListSubmissionsByHandle returns one handle's submissions ordered by recency.
func (p *Postgres) ListSubmissionsByHandle(ctx context.Context, telegramHandle string, limit, offset int) ([]domain.Submission, error) {
	return p.listSubmissions(ctx, `
SELECT id, x_handle, telegram_handle, tweet_url, tweet_id, submitted_at
FROM submissions WHERE lower(telegram_handle) = lower($1)
ORDER BY submitted_at DESC LIMIT $2 OFFSET $3
`, "submissions_list_by_handle", telegramHandle, limit, offset)
}

func (p *Postgres) listSubmissions(ctx context.Context, query, operation string, args ...any) ([]domain.Submission, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, query, args...)
	metrics.ObserveNetworkRequest("postgres", operation, "submissions", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []domain.Submission
	for rows.Next() {
		var sub domain.Submission
		if err := rows.Scan(&sub.ID, &sub.XHandle, &sub.TelegramHandle, &sub.TweetURL, &sub.TweetID, &sub.SubmittedAt); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// DeleteSubmission removes a record; this is an admin operation, the bot
// itself never deletes.
func (p *Postgres) DeleteSubmission(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrSubmissionNotFound
	}
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	res, err := p.pool.Exec(ctx, `DELETE FROM submissions WHERE id=$1`, id)
	metrics.ObserveNetworkRequest("postgres", "submissions_delete", "submissions", start, err)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return domain.ErrSubmissionNotFound
	}
	return nil
}

// Ping verifies connectivity, used by the status endpoint.
func (p *Postgres) Ping(ctx context.Context) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()
	start := time.Now()
	err := p.pool.Ping(ctx)
	metrics.ObserveNetworkRequest("postgres", "ping", "postgres", start, err)
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}
