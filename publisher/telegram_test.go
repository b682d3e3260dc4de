package publisher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"contentorbit/config"
)

func telegramOK(messageID int64) []byte {
	b, _ := json.Marshal(map[string]any{
		"ok":     true,
		"result": map[string]any{"message_id": messageID},
	})
	return b
}

func telegramErr(code int, desc string) []byte {
	b, _ := json.Marshal(map[string]any{
		"ok":          false,
		"error_code":  code,
		"description": desc,
	})
	return b
}

func testTelegram(t *testing.T, handler http.HandlerFunc) *Telegram {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	tg := NewTelegram(config.TelegramConfig{
		BotToken:     "TOKEN",
		ChannelID:    "@orbit",
		AdminChatIDs: []int64{11, 22},
	})
	tg.baseURL = srv.URL
	tg.retry = fastPolicy()
	return tg
}

func TestSendMessage(t *testing.T) {
	tg := testTelegram(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN/sendMessage" {
			t.Errorf("path = %s", r.URL.Path)
		}
		r.ParseForm()
		if r.Form.Get("chat_id") != "@orbit" || r.Form.Get("parse_mode") != "HTML" {
			t.Errorf("form = %v", r.Form)
		}
		w.Write(telegramOK(42))
	})

	id, err := tg.SendMessage(context.Background(), "@orbit", "<b>hello</b>")
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if id != 42 {
		t.Errorf("message id = %d, want 42", id)
	}
}

func TestSendMessageTruncates(t *testing.T) {
	var gotText string
	tg := testTelegram(t, func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		gotText = r.Form.Get("text")
		w.Write(telegramOK(1))
	})

	long := strings.Repeat("a", config.TelegramMaxText+500)
	if _, err := tg.SendMessage(context.Background(), "@orbit", long); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if len([]rune(gotText)) > config.TelegramMaxText {
		t.Errorf("text length = %d, want <= %d", len([]rune(gotText)), config.TelegramMaxText)
	}
}

func TestPublishPostPhotoWithShortCaption(t *testing.T) {
	var methods []string
	tg := testTelegram(t, func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.URL.Path)
		w.Write(telegramOK(5))
	})

	id, err := tg.PublishPost(context.Background(), "short post", "https://example.com/pic.jpg")
	if err != nil {
		t.Fatalf("PublishPost failed: %v", err)
	}
	if id != 5 {
		t.Errorf("id = %d", id)
	}
	if len(methods) != 1 || !strings.HasSuffix(methods[0], "sendPhoto") {
		t.Errorf("methods = %v, want one sendPhoto", methods)
	}
}

func TestPublishPostLongCaptionSplits(t *testing.T) {
	var methods []string
	tg := testTelegram(t, func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.URL.Path)
		w.Write(telegramOK(6))
	})

	text := "Headline\n" + strings.Repeat("body ", 400) // way over 1024
	if _, err := tg.PublishPost(context.Background(), text, "https://example.com/pic.jpg"); err != nil {
		t.Fatalf("PublishPost failed: %v", err)
	}
	if len(methods) != 2 {
		t.Fatalf("methods = %v, want sendPhoto then sendMessage", methods)
	}
	if !strings.HasSuffix(methods[0], "sendPhoto") || !strings.HasSuffix(methods[1], "sendMessage") {
		t.Errorf("methods = %v", methods)
	}
}

func TestPublishPostPhotoFallsBackToText(t *testing.T) {
	var methods []string
	tg := testTelegram(t, func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.URL.Path)
		if strings.HasSuffix(r.URL.Path, "sendPhoto") {
			w.Write(telegramErr(400, "wrong file identifier"))
			return
		}
		w.Write(telegramOK(9))
	})

	id, err := tg.PublishPost(context.Background(), "post text", "https://example.com/broken.jpg")
	if err != nil {
		t.Fatalf("PublishPost failed: %v", err)
	}
	if id != 9 {
		t.Errorf("id = %d, want text message id", id)
	}
	last := methods[len(methods)-1]
	if !strings.HasSuffix(last, "sendMessage") {
		t.Errorf("expected text fallback, methods = %v", methods)
	}
}

func TestTelegramBadRequestIsPermanent(t *testing.T) {
	calls := 0
	tg := testTelegram(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write(telegramErr(401, "Unauthorized"))
	})

	_, err := tg.SendMessage(context.Background(), "@orbit", "x")
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestAlertAdmins(t *testing.T) {
	var chats []string
	tg := testTelegram(t, func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		chats = append(chats, r.Form.Get("chat_id"))
		w.Write(telegramOK(1))
	})

	tg.AlertAdmins(context.Background(), "pipeline failed")
	if len(chats) != 2 || chats[0] != "11" || chats[1] != "22" {
		t.Errorf("chats = %v", chats)
	}
}

func TestSplitCaption(t *testing.T) {
	caption, rest := splitCaption("Headline\nrest of the post")
	if caption != "Headline" || rest != "rest of the post" {
		t.Errorf("got %q / %q", caption, rest)
	}

	long := strings.Repeat("x", 2000)
	caption, rest = splitCaption(long)
	if len([]rune(caption)) > config.TelegramMaxCaption {
		t.Errorf("caption too long: %d", len([]rune(caption)))
	}
	if rest == "" {
		t.Error("rest should carry the overflow")
	}
}
