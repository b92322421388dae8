package notify

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"rule-board/pkg/store"
)

// Kind classifies a mutation for notification purposes
type Kind string

const (
	KindCreate Kind = "create"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
)

// Notifier announces rule mutations on a best-effort side channel.
// Implementations swallow their own failures; nothing ever propagates back
// into the mutation path.
type Notifier interface {
	Notify(kind Kind, rule store.Rule)
}

// NopNotifier is used when no webhook URL is configured
type NopNotifier struct{}

func (NopNotifier) Notify(Kind, store.Rule) {}

// DiscordNotifier posts one embed per mutation to a Discord webhook
type DiscordNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewDiscordNotifier creates a notifier posting to the given webhook URL
func NewDiscordNotifier(webhookURL string) *DiscordNotifier {
	return &DiscordNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type embed struct {
	Title     string       `json:"title"`
	Color     int          `json:"color"`
	Fields    []embedField `json:"fields"`
	Timestamp string       `json:"timestamp"`
}

type webhookPayload struct {
	Embeds []embed `json:"embeds"`
}

var actionLabels = map[Kind]string{
	KindCreate: "新規作成",
	KindUpdate: "更新",
	KindDelete: "削除",
}

var actionColors = map[Kind]int{
	KindCreate: 0x00ff00, // green
	KindUpdate: 0xffff00, // yellow
	KindDelete: 0xff0000, // red
}

// Notify sends the embed for one mutation. Delivery errors are logged and
// dropped; by the time this runs the mutation has already been applied and
// broadcast.
func (n *DiscordNotifier) Notify(kind Kind, rule store.Rule) {
	e := embed{
		Title: "ルール" + actionLabels[kind],
		Color: actionColors[kind],
		Fields: []embedField{
			{Name: "タイトル", Value: rule.Title, Inline: true},
			{Name: "カテゴリー", Value: rule.Category, Inline: true},
			{Name: "編集者", Value: rule.Editor, Inline: true},
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	if rule.Details1 != "" {
		e.Fields = append(e.Fields, embedField{
			Name:  "詳細(1)",
			Value: truncate(rule.Details1, 1024),
		})
	}

	body, err := json.Marshal(webhookPayload{Embeds: []embed{e}})
	if err != nil {
		log.Printf("Discord notify marshal error: %v", err)
		return
	}

	resp, err := n.client.Post(n.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("Discord notify error: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Printf("Discord notify unexpected status: %d", resp.StatusCode)
	}
}

// truncate cuts s to at most n characters without splitting a rune
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

var _ Notifier = (*DiscordNotifier)(nil)
var _ Notifier = NopNotifier{}
