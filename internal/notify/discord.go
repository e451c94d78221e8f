// Package notify posts TeamBalancer events to a Discord channel webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/teambalancer/teambalancer-api/internal/config"
)

const (
	colorBlue  = 3447003
	colorGreen = 3066993
	colorRed   = 15158332

	footerText = "TeamBalancer Workload Distribution System"
)

type Notifier interface {
	AssignmentsGenerated(ctx context.Context, cycleDate time.Time) error
	WorkPortionCreated(ctx context.Context, portionName, createdBy string) error
	SystemError(ctx context.Context, message string) error
}

type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type EmbedFooter struct {
	Text string `json:"text"`
}

type Embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Timestamp   string       `json:"timestamp"`
	Footer      EmbedFooter  `json:"footer"`
}

type Message struct {
	Content string  `json:"content,omitempty"`
	Embeds  []Embed `json:"embeds"`
}

type DiscordNotifier struct {
	webhookURL   string
	dashboardURL string
	httpClient   *http.Client
	now          func() time.Time
}

func NewDiscordNotifier(cfg config.WebhookConfig, dashboardURL string) *DiscordNotifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &DiscordNotifier{
		webhookURL:   cfg.DiscordURL,
		dashboardURL: dashboardURL,
		httpClient:   &http.Client{Timeout: timeout},
		now:          time.Now,
	}
}

func (n *DiscordNotifier) IsConfigured() bool {
	return n.webhookURL != ""
}

func (n *DiscordNotifier) AssignmentsGenerated(ctx context.Context, cycleDate time.Time) error {
	return n.Send(ctx, Message{
		Content: "🎉 New workload distribution has been generated!",
		Embeds: []Embed{n.embed(
			"TeamBalancer Update",
			"New workload assignments have been generated for the current cycle.",
			colorBlue,
			EmbedField{Name: "Cycle Date", Value: cycleDate.UTC().Format("2006-01-02"), Inline: true},
			EmbedField{Name: "Dashboard", Value: n.dashboardLink(), Inline: true},
		)},
	})
}

func (n *DiscordNotifier) WorkPortionCreated(ctx context.Context, portionName, createdBy string) error {
	return n.Send(ctx, Message{
		Embeds: []Embed{n.embed(
			"TeamBalancer Update",
			"A new work portion has been created.",
			colorGreen,
			EmbedField{Name: "Work Portion", Value: portionName, Inline: true},
			EmbedField{Name: "Created By", Value: createdBy, Inline: true},
			EmbedField{Name: "Dashboard", Value: n.dashboardLink()},
		)},
	})
}

func (n *DiscordNotifier) SystemError(ctx context.Context, message string) error {
	return n.Send(ctx, Message{
		Content: "@here ⚠️ TeamBalancer System Error!",
		Embeds: []Embed{n.embed(
			"System Error",
			"An error occurred in the TeamBalancer system.",
			colorRed,
			EmbedField{Name: "Error Message", Value: message},
			EmbedField{Name: "Time", Value: n.now().UTC().Format(time.RFC3339)},
		)},
	})
}

// Send posts msg to the webhook. It does nothing when no webhook is configured.
func (n *DiscordNotifier) Send(ctx context.Context, msg Message) error {
	if !n.IsConfigured() {
		return nil
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode webhook message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func (n *DiscordNotifier) embed(title, description string, color int, fields ...EmbedField) Embed {
	return Embed{
		Title:       title,
		Description: description,
		Color:       color,
		Fields:      fields,
		Timestamp:   n.now().UTC().Format(time.RFC3339),
		Footer:      EmbedFooter{Text: footerText},
	}
}

func (n *DiscordNotifier) dashboardLink() string {
	return fmt.Sprintf("[View Dashboard](%s)", n.dashboardURL)
}

// Nop discards every notification.
type Nop struct{}

func (Nop) AssignmentsGenerated(context.Context, time.Time) error   { return nil }
func (Nop) WorkPortionCreated(context.Context, string, string) error { return nil }
func (Nop) SystemError(context.Context, string) error                { return nil }
