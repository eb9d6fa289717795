package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"mavryk-submission-bot/internal/domain"
)

const cacheTTL = 5 * time.Minute

// Service is the user directory: account lookups by Telegram handle with a
// short-lived cache in front of the store. Accounts are created elsewhere and
// only read here, so serving a slightly stale copy is safe.
type Service struct {
	repo  domain.AccountRepo
	cache domain.Cache
	log   zerolog.Logger
}

// NewService creates the directory. The cache may be nil.
func NewService(repo domain.AccountRepo, cache domain.Cache, log zerolog.Logger) *Service {
	return &Service{repo: repo, cache: cache, log: log}
}

// NormalizeHandle strips a leading @ and lowercases the handle, the form used
// for cache keys and case-insensitive matching.
func NormalizeHandle(telegramHandle string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(telegramHandle), "@"))
}

// Lookup finds the account registered under the Telegram handle, matching
// case-insensitively. Returns domain.ErrAccountNotFound when no record exists.
func (s *Service) Lookup(ctx context.Context, telegramHandle string) (domain.Account, error) {
	handle := NormalizeHandle(telegramHandle)
	if handle == "" {
		return domain.Account{}, domain.ErrAccountNotFound
	}

	key := "account:" + handle
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key); err == nil && len(data) > 0 {
			var account domain.Account
			if err := json.Unmarshal(data, &account); err == nil {
				return account, nil
			}
		}
	}

	account, err := s.repo.GetByTelegramHandle(ctx, handle)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return domain.Account{}, domain.ErrAccountNotFound
		}
		return domain.Account{}, fmt.Errorf("account lookup: %w", err)
	}

	if s.cache != nil {
		if data, err := json.Marshal(account); err == nil {
			if err := s.cache.Set(ctx, key, data, cacheTTL); err != nil {
				s.log.Debug().Err(err).Str("handle", handle).Msg("account cache set failed")
			}
		}
	}
	return account, nil
}
