package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/fgeck/gowol/internal/models"
	"github.com/fgeck/gowol/internal/services/wol"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockHTTPClient struct {
	doFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if m.doFunc != nil {
		return m.doFunc(req)
	}
	return jsonResponse(http.StatusOK, `{"ok":true,"result":[]}`), nil
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func testConfig() models.TelegramConfig {
	return models.TelegramConfig{
		BotToken:      "123456:ABC-DEF",
		ChatID:        "-100123456789",
		PollTimeout:   30 * time.Second,
		RetryInterval: time.Millisecond,
	}
}

func textUpdate(id, chatID int64, text string) string {
	return fmt.Sprintf(`{"update_id":%d,"message":{"message_id":%d,"chat":{"id":%d},"text":%q}}`, id, id*10, chatID, text)
}

// fakeBot serves the given getUpdates batches in order and cancels the run once they are exhausted.
type fakeBot struct {
	batches  []string
	cancel   context.CancelFunc
	polls    []*http.Request
	replies  []sendMessageRequest
	replyErr error
}

func (f *fakeBot) client() *mockHTTPClient {
	return &mockHTTPClient{
		doFunc: func(req *http.Request) (*http.Response, error) {
			switch {
			case strings.HasSuffix(req.URL.Path, "/getUpdates"):
				f.polls = append(f.polls, req)
				if len(f.batches) == 0 {
					f.cancel()
					return nil, context.Canceled
				}
				batch := f.batches[0]
				f.batches = f.batches[1:]
				return jsonResponse(http.StatusOK, `{"ok":true,"result":[`+batch+`]}`), nil
			case strings.HasSuffix(req.URL.Path, "/sendMessage"):
				var body sendMessageRequest
				raw, _ := io.ReadAll(req.Body)
				_ = json.Unmarshal(raw, &body)
				f.replies = append(f.replies, body)
				if f.replyErr != nil {
					return nil, f.replyErr
				}
				return jsonResponse(http.StatusOK, `{"ok":true}`), nil
			}
			return jsonResponse(http.StatusNotFound, `{"ok":false}`), nil
		},
	}
}

type recordingHandler struct {
	macs []string
	err  error
}

func (h *recordingHandler) handle(ctx context.Context, command string) (*models.WakeResult, error) {
	h.macs = append(h.macs, command)
	if h.err != nil {
		return nil, h.err
	}
	return &models.WakeResult{MAC: strings.ToLower(command), Target: "255.255.255.255:9"}, nil
}

func runBot(t *testing.T, bot *fakeBot, h *recordingHandler) error {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bot.cancel = cancel

	src := NewWithClient(testLogger(), testConfig(), bot.client(), "https://api.telegram.org")
	return src.Run(ctx, h.handle)
}

func TestRun_WolCommand(t *testing.T) {
	bot := &fakeBot{batches: []string{textUpdate(1, -100123456789, "/wol AA:BB:CC:DD:EE:FF")}}
	h := &recordingHandler{}

	err := runBot(t, bot, h)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"AA:BB:CC:DD:EE:FF"}, h.macs)

	require.Len(t, bot.replies, 1)
	assert.Equal(t, "-100123456789", bot.replies[0].ChatID)
	assert.Equal(t, "HTML", bot.replies[0].ParseMode)
	assert.Equal(t, int64(10), bot.replies[0].ReplyToMessageID)
	assert.Contains(t, bot.replies[0].Text, "Wake-on-LAN packet sent to <code>aa:bb:cc:dd:ee:ff</code>")
}

func TestRun_FailureIsReported(t *testing.T) {
	bot := &fakeBot{batches: []string{textUpdate(1, -100123456789, "/wol nope")}}
	h := &recordingHandler{err: &wol.WakeError{MAC: "nope", Err: fmt.Errorf("%w: <bad>", wol.ErrInvalidFormat)}}

	err := runBot(t, bot, h)

	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, bot.replies, 1)
	assert.Contains(t, bot.replies[0].Text, "Failed to send Wake-on-LAN packet")
	assert.Contains(t, bot.replies[0].Text, "&lt;bad&gt;")
}

func TestRun_IgnoresForeignChat(t *testing.T) {
	bot := &fakeBot{batches: []string{textUpdate(1, 42, "/wol AA:BB:CC:DD:EE:FF")}}
	h := &recordingHandler{}

	_ = runBot(t, bot, h)

	assert.Empty(t, h.macs)
	assert.Empty(t, bot.replies)
}

func TestRun_AdvancesOffset(t *testing.T) {
	bot := &fakeBot{batches: []string{
		textUpdate(7, -100123456789, "AA:BB:CC:DD:EE:FF") + "," + textUpdate(8, -100123456789, "/wol@gowol_bot 11-22-33-44-55-66"),
		textUpdate(9, -100123456789, "/start"),
	}}
	h := &recordingHandler{}

	_ = runBot(t, bot, h)

	assert.Equal(t, []string{"AA:BB:CC:DD:EE:FF", "11-22-33-44-55-66"}, h.macs)

	require.Len(t, bot.polls, 3)
	assert.Equal(t, "0", bot.polls[0].URL.Query().Get("offset"))
	assert.Equal(t, "9", bot.polls[1].URL.Query().Get("offset"))
	assert.Equal(t, "10", bot.polls[2].URL.Query().Get("offset"))
	assert.Equal(t, "30", bot.polls[0].URL.Query().Get("timeout"))
	assert.Contains(t, bot.polls[0].URL.Path, "/bot123456:ABC-DEF/getUpdates")
}

func TestRun_UsageWithoutArgument(t *testing.T) {
	bot := &fakeBot{batches: []string{textUpdate(1, -100123456789, "/wol")}}
	h := &recordingHandler{}

	_ = runBot(t, bot, h)

	assert.Empty(t, h.macs)
	require.Len(t, bot.replies, 1)
	assert.Contains(t, bot.replies[0].Text, "Usage")
}

func TestRun_ReplyFailureDoesNotStopPolling(t *testing.T) {
	bot := &fakeBot{
		batches: []string{
			textUpdate(1, -100123456789, "AA:BB:CC:DD:EE:FF"),
			textUpdate(2, -100123456789, "11:22:33:44:55:66"),
		},
		replyErr: errors.New("network error"),
	}
	h := &recordingHandler{}

	err := runBot(t, bot, h)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, h.macs, 2)
}

func TestRun_RetriesAfterPollError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	client := &mockHTTPClient{
		doFunc: func(req *http.Request) (*http.Response, error) {
			calls++
			switch calls {
			case 1:
				return nil, errors.New("connection reset")
			case 2:
				return jsonResponse(http.StatusBadGateway, ""), nil
			case 3:
				return jsonResponse(http.StatusOK, `{"ok":false,"description":"Conflict"}`), nil
			}
			cancel()
			return nil, context.Canceled
		},
	}

	src := NewWithClient(testLogger(), testConfig(), client, "https://api.telegram.org")
	err := src.Run(ctx, (&recordingHandler{}).handle)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 4, calls)
}

func TestRun_StopsDuringRetryWait(t *testing.T) {
	cfg := testConfig()
	cfg.RetryInterval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	client := &mockHTTPClient{
		doFunc: func(req *http.Request) (*http.Response, error) {
			return nil, errors.New("connection refused")
		},
	}

	done := make(chan error, 1)
	go func() {
		done <- NewWithClient(testLogger(), cfg, client, "https://api.telegram.org").Run(ctx, (&recordingHandler{}).handle)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("source did not stop")
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		text    string
		wantMAC string
		wantOK  bool
	}{
		{"/wol AA:BB:CC:DD:EE:FF", "AA:BB:CC:DD:EE:FF", true},
		{"/wol@gowol_bot AA:BB:CC:DD:EE:FF", "AA:BB:CC:DD:EE:FF", true},
		{"/WOL aa-bb-cc-dd-ee-ff", "aa-bb-cc-dd-ee-ff", true},
		{"  AA:BB:CC:DD:EE:FF  ", "AA:BB:CC:DD:EE:FF", true},
		{"/wol", "", true},
		{"/start", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			mac, ok := parseCommand(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantMAC, mac)
		})
	}
}

func TestName(t *testing.T) {
	assert.Equal(t, "telegram", New(testLogger(), testConfig()).Name())
}

func TestEscapeHTML(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"hello", "hello"},
		{"<script>", "&lt;script&gt;"},
		{"a & b", "a &amp; b"},
		{"<>&", "&lt;&gt;&amp;"},
		{"normal text", "normal text"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := escapeHTML(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}
