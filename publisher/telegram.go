package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"contentorbit/config"
)

const telegramBaseURL = "https://api.telegram.org"

// Telegram posts to the channel through the Bot API. No SDK: the Bot
// API is a flat HTTPS/JSON surface and the two methods we need fit in
// a page.
type Telegram struct {
	token    string
	channel  string
	admins   []int64
	baseURL  string
	client   *http.Client
	retry    RetryPolicy
}

// NewTelegram builds the client from the telegram config section
func NewTelegram(cfg config.TelegramConfig) *Telegram {
	return &Telegram{
		token:   cfg.BotToken,
		channel: cfg.ChannelID,
		admins:  cfg.AdminChatIDs,
		baseURL: telegramBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		retry:   DefaultRetryPolicy(),
	}
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	ErrorCode   int    `json:"error_code"`
	Result      struct {
		MessageID int64 `json:"message_id"`
		Username  string `json:"username"`
	} `json:"result"`
}

// PublishPost sends the channel post. With an image and a caption that
// fits the 1024-char limit it goes as a photo; longer posts go as a
// photo captioned with the first line plus a follow-up text message.
// Photo failures fall back to plain text so a dead image URL never
// loses the post.
func (t *Telegram) PublishPost(ctx context.Context, text, photoURL string) (int64, error) {
	if photoURL != "" {
		caption := text
		var followUp string
		if len([]rune(caption)) > config.TelegramMaxCaption {
			caption, followUp = splitCaption(text)
		}

		id, err := t.SendPhoto(ctx, t.channel, photoURL, caption)
		if err == nil {
			if followUp != "" {
				if _, err := t.SendMessage(ctx, t.channel, followUp); err != nil {
					log.Printf("⚠️ Telegram follow-up text failed: %v", err)
				}
			}
			return id, nil
		}
		log.Printf("⚠️ Telegram photo failed, falling back to text: %v", err)
	}

	return t.SendMessage(ctx, t.channel, text)
}

// SendMessage posts HTML text, truncated to the Bot API limit
func (t *Telegram) SendMessage(ctx context.Context, chatID, text string) (int64, error) {
	if runes := []rune(text); len(runes) > config.TelegramMaxText {
		text = string(runes[:config.TelegramMaxText-1]) + "…"
	}
	params := url.Values{
		"chat_id":                  {chatID},
		"text":                     {text},
		"parse_mode":               {"HTML"},
		"disable_web_page_preview": {"false"},
	}
	return t.call(ctx, "sendMessage", params)
}

// SendPhoto posts a photo by URL with an HTML caption
func (t *Telegram) SendPhoto(ctx context.Context, chatID, photoURL, caption string) (int64, error) {
	if runes := []rune(caption); len(runes) > config.TelegramMaxCaption {
		caption = string(runes[:config.TelegramMaxCaption-1]) + "…"
	}
	params := url.Values{
		"chat_id":    {chatID},
		"photo":      {photoURL},
		"caption":    {caption},
		"parse_mode": {"HTML"},
	}
	return t.call(ctx, "sendPhoto", params)
}

// AlertAdmins notifies every configured admin chat; failures are logged
// and swallowed since alerts must never take the pipeline down.
func (t *Telegram) AlertAdmins(ctx context.Context, text string) {
	for _, chatID := range t.admins {
		if _, err := t.SendMessage(ctx, strconv.FormatInt(chatID, 10), "⚠️ "+text); err != nil {
			log.Printf("⚠️ Failed to alert admin %d: %v", chatID, err)
		}
	}
}

// TestConnection calls getMe and returns the bot username
func (t *Telegram) TestConnection(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.methodURL("getMe"), nil)
	if err != nil {
		return "", err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("telegram connection test failed: %w", err)
	}
	defer resp.Body.Close()

	var parsed telegramResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to parse getMe response: %w", err)
	}
	if !parsed.OK {
		return "", fmt.Errorf("telegram getMe failed: %s", parsed.Description)
	}
	return parsed.Result.Username, nil
}

func (t *Telegram) call(ctx context.Context, method string, params url.Values) (int64, error) {
	var messageID int64
	err := t.retry.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.methodURL(method),
			strings.NewReader(params.Encode()))
		if err != nil {
			return Permanent(err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := t.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		var parsed telegramResponse
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return fmt.Errorf("failed to parse %s response: %w", method, err)
		}
		if !parsed.OK {
			err := fmt.Errorf("telegram %s failed (%d): %s", method, parsed.ErrorCode, parsed.Description)
			// 401 bad token, 400 bad request, 403 kicked from channel
			if parsed.ErrorCode == 400 || parsed.ErrorCode == 401 || parsed.ErrorCode == 403 {
				return Permanent(err)
			}
			return err
		}
		messageID = parsed.Result.MessageID
		return nil
	})
	return messageID, err
}

func (t *Telegram) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", t.baseURL, t.token, method)
}

// splitCaption breaks a long post into a short caption (the headline
// line) and the remainder for a follow-up message.
func splitCaption(text string) (caption, rest string) {
	if idx := strings.Index(text, "\n"); idx > 0 && idx <= config.TelegramMaxCaption {
		return text[:idx], strings.TrimSpace(text[idx:])
	}
	runes := []rune(text)
	cut := config.TelegramMaxCaption - 1
	return string(runes[:cut]) + "…", string(runes[cut:])
}
