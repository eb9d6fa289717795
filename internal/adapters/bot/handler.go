package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"mavryk-submission-bot/internal/adapters/telegram"
	"mavryk-submission-bot/internal/domain"
	"mavryk-submission-bot/internal/infra/metrics"
	"mavryk-submission-bot/internal/usecase/accounts"
	"mavryk-submission-bot/internal/usecase/submission"
)

// Handler dispatches inbound bot updates to the directory and the admission
// pipeline and renders the user-facing replies.
type Handler struct {
	bot          *tgbotapi.BotAPI
	log          zerolog.Logger
	directory    *accounts.Service
	submissions  *submission.Service
	communityURL string
}

// NewHandler creates the dispatcher.
func NewHandler(bot *tgbotapi.BotAPI, log zerolog.Logger, directory *accounts.Service, submissions *submission.Service, communityURL string) *Handler {
	return &Handler{
		bot:          bot,
		log:          log,
		directory:    directory,
		submissions:  submissions,
		communityURL: communityURL,
	}
}

// HandleUpdate processes one inbound update. Non-command messages are
// ignored on purpose: the bot only reacts to explicit commands.
func (h *Handler) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message == nil {
		return
	}
	h.handleMessage(ctx, upd.Message)
}

func (h *Handler) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	text := strings.TrimSpace(msg.Text)
	if !strings.HasPrefix(text, "/") {
		return
	}
	command, args := ParseCommand(text)
	h.log.Debug().Str("command", command).Int64("chat_id", msg.Chat.ID).Msg("bot command received")

	switch command {
	case "/start":
		h.reply(msg.Chat.ID, h.startMessage())
	case "/help":
		h.reply(msg.Chat.ID, h.helpMessage())
	case "/status":
		h.handleStatus(ctx, msg)
	case "/submitmavryk":
		h.handleSubmit(ctx, msg, args)
	default:
		h.log.Warn().Str("command", command).Msg("unrecognized command")
	}
}

func (h *Handler) handleStatus(ctx context.Context, msg *tgbotapi.Message) {
	handle, ok := h.senderHandle(msg)
	if !ok {
		return
	}
	account, err := h.directory.Lookup(ctx, handle)
	if errors.Is(err, domain.ErrAccountNotFound) {
		h.reply(msg.Chat.ID, fmt.Sprintf(`❌ Status: Not Found

You are not registered in our system yet.

To get started, please visit:
🔗 %s

Sign up there first, then come back to use the bot.`, h.communityURL))
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("handle", handle).Msg("status lookup failed")
		h.sendError(msg.Chat.ID, "An error occurred while checking your status.")
		return
	}
	if account.IsLinked() {
		h.reply(msg.Chat.ID, fmt.Sprintf(`✅ Status: Connected

Your X account is connected and ready for submissions!
• Telegram: @%s
• X Handle: @%s

You can now submit tweets using:
/SubmitMavryk <tweet_url>`, handle, account.XHandle))
		return
	}
	h.reply(msg.Chat.ID, fmt.Sprintf(`❌ Status: Not Connected

Your X account is not connected yet.

To connect your account, please visit:
🔗 %s

Once connected, you'll be able to submit Mavryk tweets.`, h.communityURL))
}

func (h *Handler) handleSubmit(ctx context.Context, msg *tgbotapi.Message, tweetURL string) {
	handle, ok := h.senderHandle(msg)
	if !ok {
		return
	}
	sub, err := h.submissions.Submit(ctx, handle, tweetURL)
	if err != nil {
		h.replySubmitRejection(msg.Chat.ID, handle, err)
		return
	}
	h.reply(msg.Chat.ID, fmt.Sprintf(`✅ Submission Successful!

Your Mavryk tweet has been submitted for review.

Details:
• Tweet URL: %s
• Your X Handle: @%s
• Submitted: %s

We'll review your submission and get back to you soon!`, sub.TweetURL, sub.XHandle, sub.SubmittedAt.Format(time.RFC1123)))
}

func (h *Handler) replySubmitRejection(chatID int64, handle string, err error) {
	switch {
	case errors.Is(err, domain.ErrNoTelegramHandle):
		h.reply(chatID, noUsernameMessage)
	case errors.Is(err, domain.ErrInvalidTweetURL):
		h.reply(chatID, `❌ Invalid tweet URL. Please provide a valid X/Twitter URL.

Example: https://x.com/username/status/1234567890123456789`)
	case errors.Is(err, domain.ErrAccountNotFound):
		h.reply(chatID, fmt.Sprintf(`❌ User Not Found

You are not registered in our system yet.

To get started, please visit:
🔗 %s

Sign up there first, then come back to submit tweets.`, h.communityURL))
	case errors.Is(err, domain.ErrAccountNotLinked):
		h.reply(chatID, fmt.Sprintf(`❌ X Account Not Connected

Your X account is not connected yet.

Please visit: 🔗 %s

Connect your X account first, then try submitting again.`, h.communityURL))
	case errors.Is(err, domain.ErrDailyCapReached):
		h.reply(chatID, `❌ Daily Limit Reached

You have already submitted a tweet today. Come back tomorrow (UTC) to submit another one.`)
	case errors.Is(err, domain.ErrDuplicateTweetURL):
		h.reply(chatID, "❌ This tweet has already been submitted. Please submit a different tweet.")
	default:
		h.log.Error().Err(err).Str("handle", handle).Msg("submission failed")
		h.sendError(chatID, "An error occurred while processing your submission.")
	}
}

// senderHandle returns the sender's lowercased Telegram username, replying
// with guidance when the account has none set.
func (h *Handler) senderHandle(msg *tgbotapi.Message) (string, bool) {
	if msg.From == nil || msg.From.UserName == "" {
		h.reply(msg.Chat.ID, noUsernameMessage)
		return "", false
	}
	return strings.ToLower(msg.From.UserName), true
}

func (h *Handler) startMessage() string {
	return fmt.Sprintf(`🤖 Welcome to the Mavryk Submission Bot!

Available commands:
• /status - Check your connection status
• /SubmitMavryk <tweet_url> - Submit a Mavryk tweet

To get started, you need to connect your X account first.
Visit: %s`, h.communityURL)
}

func (h *Handler) helpMessage() string {
	return fmt.Sprintf(`📋 Mavryk Submission Bot Help

Commands:
• /status - Check if your X account is connected
• /SubmitMavryk <tweet_url> - Submit a Mavryk tweet for review
• /help - Show this help message

How to use:
1. First, connect your X account at: %s
2. Use /status to verify your connection
3. Submit tweets using: /SubmitMavryk https://x.com/username/status/123456789

Example:
/SubmitMavryk https://x.com/mavryk/status/1234567890123456789`, h.communityURL)
}

const noUsernameMessage = "❌ You need to have a Telegram username to use this bot. Please set a username in your Telegram settings and try again."

func (h *Handler) sendError(chatID int64, message string) {
	h.reply(chatID, "❌ "+message)
}

func (h *Handler) reply(chatID int64, text string) {
	for _, chunk := range telegram.ChunkMessage(text) {
		if _, err := h.bot.Send(tgbotapi.NewMessage(chatID, chunk)); err != nil {
			metrics.BotSendErrors.Inc()
			h.log.Error().Err(err).Int64("chat_id", chatID).Msg("send message failed")
			return
		}
	}
}

// ParseCommand splits a command message into the lowercased command name and
// its argument string. A bot mention suffix (/cmd@BotName) is dropped.
func ParseCommand(text string) (string, string) {
	text = strings.TrimSpace(text)
	command, args, _ := strings.Cut(text, " ")
	if at := strings.Index(command, "@"); at >= 0 {
		command = command[:at]
	}
	return strings.ToLower(command), strings.TrimSpace(args)
}
