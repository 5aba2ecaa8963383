//go:build e2e

package e2e

import (
	"context"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/fgeck/gowol/internal/models"
	"github.com/fgeck/gowol/internal/services/telegram"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getTelegramConfig(t *testing.T) models.TelegramConfig {
	t.Helper()

	botToken := os.Getenv("TEST_TELEGRAM_BOT_TOKEN")
	if botToken == "" {
		t.Skip("TEST_TELEGRAM_BOT_TOKEN not set")
	}

	chatID := os.Getenv("TEST_TELEGRAM_CHAT_ID")
	if chatID == "" {
		t.Skip("TEST_TELEGRAM_CHAT_ID not set")
	}

	return models.TelegramConfig{
		BotToken:      botToken,
		ChatID:        chatID,
		PollTimeout:   2 * time.Second,
		RetryInterval: time.Second,
	}
}

// statusRecorder records the status code of every Bot API response.
type statusRecorder struct {
	mu       sync.Mutex
	client   *http.Client
	statuses []int
}

func (r *statusRecorder) Do(req *http.Request) (*http.Response, error) {
	resp, err := r.client.Do(req)
	if err == nil {
		r.mu.Lock()
		r.statuses = append(r.statuses, resp.StatusCode)
		r.mu.Unlock()
	}
	return resp, err
}

func TestTelegramPoll_E2E(t *testing.T) {
	cfg := getTelegramConfig(t)

	recorder := &statusRecorder{client: &http.Client{Timeout: 10 * time.Second}}
	src := telegram.NewWithClient(testLogger(), cfg, recorder, "https://api.telegram.org")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := src.Run(ctx, func(ctx context.Context, command string) (*models.WakeResult, error) {
		return &models.WakeResult{MAC: command, Target: "255.255.255.255:9"}, nil
	})

	require.ErrorIs(t, err, context.DeadlineExceeded)

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	require.NotEmpty(t, recorder.statuses)
	assert.Equal(t, http.StatusOK, recorder.statuses[0])
}
