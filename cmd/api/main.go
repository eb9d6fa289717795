package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"mavryk-submission-bot/internal/adapters/repo"
	"mavryk-submission-bot/internal/domain"
	"mavryk-submission-bot/internal/infra/config"
	"mavryk-submission-bot/internal/infra/db"
	httpinfra "mavryk-submission-bot/internal/infra/http"
	"mavryk-submission-bot/internal/infra/log"
	"mavryk-submission-bot/internal/infra/metrics"
)

const defaultPageSize = 50

func main() {
	cfg := config.Load()
	logger := log.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: database connection failed")
	}
	defer pool.Close()

	repoAdapter := repo.NewPostgres(pool)

	r := httpinfra.NewRouter("submission-admin-api")
	r.Group(func(protected chi.Router) {
		protected.Use(httpinfra.AdminAuthMiddleware(cfg.AdminToken))

		protected.Get("/api/v1/submissions", func(w http.ResponseWriter, req *http.Request) {
			limit, offset := pagination(req)
			var (
				subs []domain.Submission
				err  error
			)
			if handle := req.URL.Query().Get("telegram_handle"); handle != "" {
				subs, err = repoAdapter.ListSubmissionsByHandle(req.Context(), handle, limit, offset)
			} else {
				subs, err = repoAdapter.ListSubmissions(req.Context(), limit, offset)
			}
			if err != nil {
				logger.Error().Err(err).Msg("api: list submissions")
				httpinfra.WriteError(w, http.StatusInternalServerError, "failed to list submissions")
				return
			}
			httpinfra.WriteJSON(w, http.StatusOK, map[string]any{"submissions": renderSubmissions(subs)})
		})

		protected.Get("/api/v1/submissions/{id}", func(w http.ResponseWriter, req *http.Request) {
			sub, err := repoAdapter.GetSubmission(req.Context(), chi.URLParam(req, "id"))
			if errors.Is(err, domain.ErrSubmissionNotFound) {
				httpinfra.WriteError(w, http.StatusNotFound, "submission not found")
				return
			}
			if err != nil {
				logger.Error().Err(err).Msg("api: get submission")
				httpinfra.WriteError(w, http.StatusInternalServerError, "failed to get submission")
				return
			}
			httpinfra.WriteJSON(w, http.StatusOK, renderSubmission(sub))
		})

		protected.Delete("/api/v1/submissions/{id}", func(w http.ResponseWriter, req *http.Request) {
			err := repoAdapter.DeleteSubmission(req.Context(), chi.URLParam(req, "id"))
			if errors.Is(err, domain.ErrSubmissionNotFound) {
				httpinfra.WriteError(w, http.StatusNotFound, "submission not found")
				return
			}
			if err != nil {
				logger.Error().Err(err).Msg("api: delete submission")
				httpinfra.WriteError(w, http.StatusInternalServerError, "failed to delete submission")
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})

		protected.Get("/api/v1/accounts", func(w http.ResponseWriter, req *http.Request) {
			limit, offset := pagination(req)
			list, err := repoAdapter.ListAccounts(req.Context(), limit, offset)
			if err != nil {
				logger.Error().Err(err).Msg("api: list accounts")
				httpinfra.WriteError(w, http.StatusInternalServerError, "failed to list accounts")
				return
			}
			httpinfra.WriteJSON(w, http.StatusOK, map[string]any{"accounts": renderAccounts(list)})
		})

		protected.Delete("/api/v1/accounts/{id}", func(w http.ResponseWriter, req *http.Request) {
			id, err := strconv.ParseInt(chi.URLParam(req, "id"), 10, 64)
			if err != nil {
				httpinfra.WriteError(w, http.StatusBadRequest, "invalid account id")
				return
			}
			err = repoAdapter.DeleteAccount(req.Context(), id)
			if errors.Is(err, domain.ErrAccountNotFound) {
				httpinfra.WriteError(w, http.StatusNotFound, "account not found")
				return
			}
			if err != nil {
				logger.Error().Err(err).Msg("api: delete account")
				httpinfra.WriteError(w, http.StatusInternalServerError, "failed to delete account")
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
	})

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), cfg.MetricsAddr)

	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: r}
	go func() {
		logger.Info().Int("port", cfg.Port).Msg("api: started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("api: server stopped")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("api: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func pagination(req *http.Request) (limit, offset int) {
	limit = defaultPageSize
	if raw := req.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}
	if raw := req.URL.Query().Get("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}

type submissionResponse struct {
	ID             string    `json:"id"`
	XHandle        string    `json:"x_handle"`
	TelegramHandle string    `json:"telegram_handle"`
	TweetURL       string    `json:"tweet_url"`
	TweetID        string    `json:"tweet_id"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

type accountResponse struct {
	ID              int64     `json:"id"`
	XHandle         string    `json:"x_handle"`
	TelegramHandle  string    `json:"telegram_handle"`
	HasKaitoYaps    bool      `json:"has_kaito_yaps"`
	XHandleReferral string    `json:"x_handle_referral,omitempty"`
	JoinTime        time.Time `json:"join_time"`
}

func renderSubmission(sub domain.Submission) submissionResponse {
	return submissionResponse{
		ID:             sub.ID,
		XHandle:        sub.XHandle,
		TelegramHandle: sub.TelegramHandle,
		TweetURL:       sub.TweetURL,
		TweetID:        sub.TweetID,
		SubmittedAt:    sub.SubmittedAt,
	}
}

func renderSubmissions(subs []domain.Submission) []submissionResponse {
	out := make([]submissionResponse, 0, len(subs))
	for _, sub := range subs {
		out = append(out, renderSubmission(sub))
	}
	return out
}

func renderAccounts(list []domain.Account) []accountResponse {
	out := make([]accountResponse, 0, len(list))
	for _, account := range list {
		out = append(out, accountResponse{
			ID:              account.ID,
			XHandle:         account.XHandle,
			TelegramHandle:  account.TelegramHandle,
			HasKaitoYaps:    account.HasKaitoYaps,
			XHandleReferral: account.XHandleReferral,
			JoinTime:        account.JoinTime,
		})
	}
	return out
}
