package notify

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"rule-board/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capturePayload(t *testing.T, kind Kind, rule store.Rule) webhookPayload {
	t.Helper()

	var payload webhookPayload
	var contentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	NewDiscordNotifier(server.URL).Notify(kind, rule)

	assert.Equal(t, "application/json", contentType)
	return payload
}

func TestNotifyCreateEmbed(t *testing.T) {
	payload := capturePayload(t, KindCreate, store.Rule{
		ID:       "1",
		Title:    "強盗の基本",
		Category: store.CategoryRobbery,
		Editor:   "alice",
	})

	require.Len(t, payload.Embeds, 1)
	e := payload.Embeds[0]

	assert.Equal(t, "ルール新規作成", e.Title)
	assert.Equal(t, 0x00ff00, e.Color)

	require.Len(t, e.Fields, 3)
	assert.Equal(t, embedField{Name: "タイトル", Value: "強盗の基本", Inline: true}, e.Fields[0])
	assert.Equal(t, embedField{Name: "カテゴリー", Value: store.CategoryRobbery, Inline: true}, e.Fields[1])
	assert.Equal(t, embedField{Name: "編集者", Value: "alice", Inline: true}, e.Fields[2])

	ts, err := time.Parse(time.RFC3339, e.Timestamp)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), ts, time.Minute)
}

func TestNotifyUpdateAndDeleteColors(t *testing.T) {
	update := capturePayload(t, KindUpdate, store.Rule{Title: "t"})
	assert.Equal(t, "ルール更新", update.Embeds[0].Title)
	assert.Equal(t, 0xffff00, update.Embeds[0].Color)

	del := capturePayload(t, KindDelete, store.Rule{Title: "t"})
	assert.Equal(t, "ルール削除", del.Embeds[0].Title)
	assert.Equal(t, 0xff0000, del.Embeds[0].Color)
}

func TestNotifyTruncatesDetails(t *testing.T) {
	long := strings.Repeat("あ", 1100)
	payload := capturePayload(t, KindUpdate, store.Rule{Title: "t", Details1: long})

	e := payload.Embeds[0]
	require.Len(t, e.Fields, 4)
	assert.Equal(t, "詳細(1)", e.Fields[3].Name)
	assert.Equal(t, strings.Repeat("あ", 1024), e.Fields[3].Value)
}

func TestNotifyOmitsEmptyDetails(t *testing.T) {
	payload := capturePayload(t, KindCreate, store.Rule{Title: "t"})
	assert.Len(t, payload.Embeds[0].Fields, 3)
}

func TestNotifySwallowsDeliveryErrors(t *testing.T) {
	// Connection refused: must log and return, never panic or propagate
	n := NewDiscordNotifier("http://127.0.0.1:1/webhook")
	n.Notify(KindCreate, store.Rule{Title: "t"})
}

func TestNotifySwallowsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	n := NewDiscordNotifier(server.URL)
	n.Notify(KindDelete, store.Rule{Title: "t"})
}

func TestTruncateShortStringUntouched(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 1024))
}
