package submission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"mavryk-submission-bot/internal/domain"
)

type stubStore struct {
	accounts map[string]domain.Account
	subs     []domain.Submission

	lookupErr error
	dailyErr  error
	dupErr    error
	createErr error
}

func newStubStore(accounts ...domain.Account) *stubStore {
	s := &stubStore{accounts: make(map[string]domain.Account)}
	for _, a := range accounts {
		s.accounts[strings.ToLower(a.TelegramHandle)] = a
	}
	return s
}

func (s *stubStore) GetByTelegramHandle(_ context.Context, handle string) (domain.Account, error) {
	if s.lookupErr != nil {
		return domain.Account{}, s.lookupErr
	}
	account, ok := s.accounts[strings.ToLower(handle)]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	return account, nil
}

func (s *stubStore) ListAccounts(context.Context, int, int) ([]domain.Account, error) { return nil, nil }
func (s *stubStore) DeleteAccount(context.Context, int64) error                       { return nil }

func (s *stubStore) ExistsDuplicate(_ context.Context, handle, tweetURL string) (bool, error) {
	if s.dupErr != nil {
		return false, s.dupErr
	}
	for _, sub := range s.subs {
		if strings.EqualFold(sub.TelegramHandle, handle) && sub.TweetURL == tweetURL {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubStore) HasSubmittedOn(_ context.Context, handle string, day time.Time) (bool, error) {
	if s.dailyErr != nil {
		return false, s.dailyErr
	}
	end := day.Add(24 * time.Hour)
	for _, sub := range s.subs {
		if strings.EqualFold(sub.TelegramHandle, handle) && !sub.SubmittedAt.Before(day) && sub.SubmittedAt.Before(end) {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubStore) CreateSubmission(_ context.Context, sub domain.Submission) (domain.Submission, error) {
	if s.createErr != nil {
		return domain.Submission{}, s.createErr
	}
	sub.ID = fmt.Sprintf("sub-%d", len(s.subs)+1)
	s.subs = append(s.subs, sub)
	return sub, nil
}

func (s *stubStore) GetSubmission(context.Context, string) (domain.Submission, error) {
	return domain.Submission{}, domain.ErrSubmissionNotFound
}

func (s *stubStore) ListSubmissions(context.Context, int, int) ([]domain.Submission, error) {
	return s.subs, nil
}

func (s *stubStore) ListSubmissionsByHandle(context.Context, string, int, int) ([]domain.Submission, error) {
	return s.subs, nil
}

func (s *stubStore) DeleteSubmission(context.Context, string) error { return nil }

type stubQueue struct {
	jobs []domain.ReviewJob
	err  error
}

func (q *stubQueue) Enqueue(_ context.Context, job domain.ReviewJob) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *stubQueue) Pop(context.Context) (domain.ReviewJob, error) {
	return domain.ReviewJob{}, errors.New("not implemented")
}

func newTestService(store *stubStore, queue domain.ReviewQueue) *Service {
	return NewService(store, store, queue, zerolog.Nop())
}

func linkedAccount(handle string) domain.Account {
	return domain.Account{ID: 1, TelegramHandle: handle, XHandle: "mavryk_fan"}
}

func TestSubmitNoHandle(t *testing.T) {
	svc := newTestService(newStubStore(), nil)
	_, err := svc.Submit(context.Background(), "  ", "https://x.com/a/status/1")
	if !errors.Is(err, domain.ErrNoTelegramHandle) {
		t.Fatalf("expected ErrNoTelegramHandle, got %v", err)
	}
}

func TestSubmitInvalidURLBeforeLookup(t *testing.T) {
	store := newStubStore()
	store.lookupErr = errors.New("store must not be touched")
	svc := newTestService(store, nil)
	_, err := svc.Submit(context.Background(), "alice", "https://example.com/status/1")
	if !errors.Is(err, domain.ErrInvalidTweetURL) {
		t.Fatalf("expected ErrInvalidTweetURL, got %v", err)
	}
}

func TestSubmitRejectsMalformedStatusID(t *testing.T) {
	store := newStubStore(linkedAccount("dave"))
	svc := newTestService(store, nil)

	// /status/1abc matches the accepted link shapes but has no clean numeric
	// id; it must be rejected, not persisted with an empty id.
	_, err := svc.Submit(context.Background(), "dave", "https://x.com/a/status/1abc")
	if !errors.Is(err, domain.ErrInvalidTweetURL) {
		t.Fatalf("expected ErrInvalidTweetURL, got %v", err)
	}
	if len(store.subs) != 0 {
		t.Fatalf("nothing should be persisted, got %d records", len(store.subs))
	}
}

func TestSubmitUnknownUser(t *testing.T) {
	svc := newTestService(newStubStore(), nil)
	_, err := svc.Submit(context.Background(), "bob", "https://x.com/bob/status/123")
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestSubmitAccountNotLinked(t *testing.T) {
	store := newStubStore(domain.Account{ID: 2, TelegramHandle: "carol", XHandle: "   "})
	svc := newTestService(store, nil)
	_, err := svc.Submit(context.Background(), "carol", "https://x.com/c/status/1")
	if !errors.Is(err, domain.ErrAccountNotLinked) {
		t.Fatalf("expected ErrAccountNotLinked, got %v", err)
	}
}

func TestSubmitAccepted(t *testing.T) {
	store := newStubStore(linkedAccount("dave"))
	queue := &stubQueue{}
	svc := newTestService(store, queue)

	sub, err := svc.Submit(context.Background(), "dave", "https://x.com/d/status/42?s=20")
	if err != nil {
		t.Fatalf("expected acceptance, got %v", err)
	}
	if sub.TweetURL != "https://x.com/d/status/42" {
		t.Fatalf("unexpected canonical url: %s", sub.TweetURL)
	}
	if sub.TweetID != "42" {
		t.Fatalf("unexpected tweet id: %s", sub.TweetID)
	}
	if sub.XHandle != "mavryk_fan" {
		t.Fatalf("x handle not copied from account: %s", sub.XHandle)
	}
	if sub.ID == "" {
		t.Fatal("expected id from the ledger")
	}
	if len(queue.jobs) != 1 {
		t.Fatalf("expected 1 review job, got %d", len(queue.jobs))
	}
	if queue.jobs[0].Author != "d" {
		t.Fatalf("unexpected review job author: %s", queue.jobs[0].Author)
	}
	if queue.jobs[0].SubmissionID != sub.ID {
		t.Fatalf("review job carries wrong submission id: %s", queue.jobs[0].SubmissionID)
	}
}

func TestSubmitDailyCap(t *testing.T) {
	store := newStubStore(linkedAccount("dave"))
	svc := newTestService(store, nil)
	base := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	if _, err := svc.Submit(context.Background(), "dave", "https://x.com/d/status/1"); err != nil {
		t.Fatalf("first submission should be accepted: %v", err)
	}

	// Different URL, same UTC day.
	svc.now = func() time.Time { return base.Add(10 * time.Hour) }
	_, err := svc.Submit(context.Background(), "dave", "https://x.com/d/status/2")
	if !errors.Is(err, domain.ErrDailyCapReached) {
		t.Fatalf("expected ErrDailyCapReached, got %v", err)
	}

	// The following UTC day resets the cap.
	svc.now = func() time.Time { return base.Add(24 * time.Hour) }
	if _, err := svc.Submit(context.Background(), "dave", "https://x.com/d/status/2"); err != nil {
		t.Fatalf("next-day submission should be accepted: %v", err)
	}
}

func TestSubmitDuplicateCaseInsensitiveHandle(t *testing.T) {
	store := newStubStore(linkedAccount("Alice"))
	svc := newTestService(store, nil)
	day := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return day }

	if _, err := svc.Submit(context.Background(), "Alice", "https://x.com/a/status/7"); err != nil {
		t.Fatalf("expected acceptance, got %v", err)
	}

	// Same URL resubmitted under a different handle case on a later day: the
	// duplicate check must fire, not the daily cap.
	svc.now = func() time.Time { return day.Add(48 * time.Hour) }
	_, err := svc.Submit(context.Background(), "alice", "https://x.com/a/status/7?s=09")
	if !errors.Is(err, domain.ErrDuplicateTweetURL) {
		t.Fatalf("expected ErrDuplicateTweetURL, got %v", err)
	}
}

func TestSubmitCheckOrderDailyCapBeforeDuplicate(t *testing.T) {
	store := newStubStore(linkedAccount("dave"))
	svc := newTestService(store, nil)
	day := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return day }

	if _, err := svc.Submit(context.Background(), "dave", "https://x.com/d/status/1"); err != nil {
		t.Fatalf("expected acceptance, got %v", err)
	}

	// Resubmitting the same URL on the same day trips both rules; the daily
	// cap is checked first.
	_, err := svc.Submit(context.Background(), "dave", "https://x.com/d/status/1")
	if !errors.Is(err, domain.ErrDailyCapReached) {
		t.Fatalf("expected ErrDailyCapReached to win, got %v", err)
	}
}

func TestSubmitInfrastructureFaultPropagates(t *testing.T) {
	store := newStubStore(linkedAccount("dave"))
	store.dailyErr = errors.New("connection reset")
	svc := newTestService(store, nil)

	_, err := svc.Submit(context.Background(), "dave", "https://x.com/d/status/1")
	if err == nil {
		t.Fatal("expected an error")
	}
	for _, sentinel := range []error{
		domain.ErrNoTelegramHandle, domain.ErrInvalidTweetURL, domain.ErrAccountNotFound,
		domain.ErrAccountNotLinked, domain.ErrDailyCapReached, domain.ErrDuplicateTweetURL,
	} {
		if errors.Is(err, sentinel) {
			t.Fatalf("infrastructure fault must not map to %v", sentinel)
		}
	}
	if !errors.Is(err, store.dailyErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestSubmitQueueFailureDoesNotRejectSubmission(t *testing.T) {
	store := newStubStore(linkedAccount("dave"))
	queue := &stubQueue{err: errors.New("broker down")}
	svc := newTestService(store, queue)

	sub, err := svc.Submit(context.Background(), "dave", "https://x.com/d/status/42")
	if err != nil {
		t.Fatalf("enqueue failure must not fail the submission: %v", err)
	}
	if len(store.subs) != 1 || store.subs[0].ID != sub.ID {
		t.Fatalf("submission should be persisted")
	}
}

func TestSubmitStripsHandlePrefix(t *testing.T) {
	store := newStubStore(linkedAccount("dave"))
	svc := newTestService(store, nil)

	sub, err := svc.Submit(context.Background(), "@dave", "https://x.com/d/status/42")
	if err != nil {
		t.Fatalf("expected acceptance, got %v", err)
	}
	if sub.TelegramHandle != "dave" {
		t.Fatalf("expected stripped handle, got %q", sub.TelegramHandle)
	}
}

func TestSubmitStorageConstraintMapsToBusinessError(t *testing.T) {
	store := newStubStore(linkedAccount("dave"))
	store.createErr = domain.ErrDuplicateTweetURL
	svc := newTestService(store, nil)

	_, err := svc.Submit(context.Background(), "dave", "https://x.com/d/status/42")
	if !errors.Is(err, domain.ErrDuplicateTweetURL) {
		t.Fatalf("expected ErrDuplicateTweetURL from the constraint, got %v", err)
	}
}
