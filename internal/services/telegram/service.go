// Package telegram receives wake commands from a Telegram bot chat.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fgeck/gowol/internal/models"
	"github.com/fgeck/gowol/internal/services/runner"
	"github.com/rs/zerolog"
)

const (
	commandName = "wol"
	usageText   = "Usage: <code>/wol AA:BB:CC:DD:EE:FF</code>"
)

// HTTPClient allows mocking HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Source long-polls the Bot API and hands every accepted message to the runner.
type Source struct {
	httpClient HTTPClient
	logger     zerolog.Logger
	baseURL    string
	cfg        models.TelegramConfig
	offset     int64
}

// New creates a new Telegram source.
func New(logger zerolog.Logger, cfg models.TelegramConfig) *Source {
	return &Source{
		httpClient: &http.Client{
			// getUpdates holds the connection open for up to PollTimeout.
			Timeout: cfg.PollTimeout + 10*time.Second,
		},
		logger:  logger,
		baseURL: "https://api.telegram.org",
		cfg:     cfg,
	}
}

// NewWithClient creates a new Telegram source with a custom HTTP client (for testing).
func NewWithClient(logger zerolog.Logger, cfg models.TelegramConfig, httpClient HTTPClient, baseURL string) *Source {
	return &Source{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    baseURL,
		cfg:        cfg,
	}
}

// Name returns the source name.
func (s *Source) Name() string {
	return "telegram"
}

type chat struct {
	ID int64 `json:"id"`
}

type message struct {
	MessageID int64  `json:"message_id"`
	Chat      chat   `json:"chat"`
	Text      string `json:"text"`
}

type update struct {
	UpdateID int64    `json:"update_id"`
	Message  *message `json:"message"`
}

type getUpdatesResponse struct {
	OK          bool     `json:"ok"`
	Description string   `json:"description"`
	Result      []update `json:"result"`
}

// sendMessageRequest is the request body for Telegram sendMessage API.
type sendMessageRequest struct {
	ChatID           string `json:"chat_id"`
	Text             string `json:"text"`
	ParseMode        string `json:"parse_mode"`
	ReplyToMessageID int64  `json:"reply_to_message_id,omitempty"`
}

// Run polls for updates until ctx is cancelled. Poll failures are retried after RetryInterval.
func (s *Source) Run(ctx context.Context, handle runner.HandleFunc) error {
	s.logger.Info().
		Str("chat_id", s.cfg.ChatID).
		Dur("poll_timeout", s.cfg.PollTimeout).
		Msg("polling Telegram for wake commands")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		updates, err := s.getUpdates(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			s.logger.Warn().Err(err).Dur("retry_in", s.cfg.RetryInterval).Msg("Telegram poll failed")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.cfg.RetryInterval):
			}
			continue
		}

		for _, u := range updates {
			s.offset = u.UpdateID + 1
			s.handleUpdate(ctx, u, handle)
		}
	}
}

func (s *Source) handleUpdate(ctx context.Context, u update, handle runner.HandleFunc) {
	msg := u.Message
	if msg == nil || strings.TrimSpace(msg.Text) == "" {
		return
	}

	chatID := strconv.FormatInt(msg.Chat.ID, 10)
	if s.cfg.ChatID != "" && chatID != s.cfg.ChatID {
		s.logger.Warn().Str("chat_id", chatID).Msg("ignoring message from unauthorized chat")
		return
	}

	mac, ok := parseCommand(msg.Text)
	if !ok {
		return
	}
	if mac == "" {
		s.reply(ctx, chatID, msg.MessageID, usageText)
		return
	}

	result, err := handle(ctx, mac)
	if err != nil {
		s.reply(ctx, chatID, msg.MessageID, fmt.Sprintf("❌ Failed to send Wake-on-LAN packet: <code>%s</code>", escapeHTML(err.Error())))
		return
	}

	s.reply(ctx, chatID, msg.MessageID, fmt.Sprintf("✅ Wake-on-LAN packet sent to <code>%s</code> via %s", escapeHTML(result.MAC), escapeHTML(result.Target)))
}

// parseCommand extracts the MAC from "/wol <mac>", "/wol@bot <mac>" or a bare "<mac>".
// ok is false for messages that are not addressed to this bot; an empty mac with ok set
// means the command was given without an argument.
func parseCommand(text string) (mac string, ok bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", false
	}

	if !strings.HasPrefix(fields[0], "/") {
		return strings.TrimSpace(text), true
	}

	name, _, _ := strings.Cut(strings.TrimPrefix(fields[0], "/"), "@")
	if !strings.EqualFold(name, commandName) {
		return "", false
	}

	if len(fields) < 2 {
		return "", true
	}
	return fields[1], true
}

func (s *Source) getUpdates(ctx context.Context) ([]update, error) {
	params := url.Values{}
	params.Set("offset", strconv.FormatInt(s.offset, 10))
	params.Set("timeout", strconv.Itoa(int(s.cfg.PollTimeout/time.Second)))
	params.Set("allowed_updates", `["message"]`)

	endpoint := fmt.Sprintf("%s/bot%s/getUpdates?%s", s.baseURL, s.cfg.BotToken, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telegram API returned status %d", resp.StatusCode)
	}

	var body getUpdatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode updates: %w", err)
	}
	if !body.OK {
		return nil, fmt.Errorf("telegram API error: %s", body.Description)
	}

	return body.Result, nil
}

func (s *Source) reply(ctx context.Context, chatID string, replyTo int64, text string) {
	if err := s.sendMessage(ctx, chatID, replyTo, text); err != nil {
		s.logger.Warn().Err(err).Str("chat_id", chatID).Msg("failed to send Telegram reply")
	}
}

func (s *Source) sendMessage(ctx context.Context, chatID string, replyTo int64, text string) error {
	reqBody := sendMessageRequest{
		ChatID:           chatID,
		Text:             text,
		ParseMode:        "HTML",
		ReplyToMessageID: replyTo,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.cfg.BotToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API returned status %d", resp.StatusCode)
	}

	return nil
}

// escapeHTML escapes HTML special characters.
func escapeHTML(s string) string {
	var b bytes.Buffer
	for _, r := range s {
		switch r {
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '&':
			b.WriteString("&amp;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
