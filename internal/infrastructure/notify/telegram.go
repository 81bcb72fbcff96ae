// Package notify implements the external notification channel. The command
// center currently ships a Telegram Bot API sender.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/glcc/command-center/internal/core/domain"
)

const telegramTimeout = 10 * time.Second

// TelegramNotifier sends HTML-formatted messages to a Telegram chat.
type TelegramNotifier struct {
	botToken string
	chatID   string
	client   *http.Client
	// baseURL is overridable for tests.
	baseURL string
}

func NewTelegramNotifier(botToken, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		client:   &http.Client{Timeout: telegramTimeout},
		baseURL:  "https://api.telegram.org",
	}
}

func (n *TelegramNotifier) NotifyStatusChange(ctx context.Context, ev domain.ChangeEvent) error {
	msg := fmt.Sprintf(
		"<b>📦 Package Status Update</b>\n\n"+
			"<b>Package:</b> %s\n"+
			"<b>Tracking:</b> %s\n"+
			"<b>Carrier:</b> %s\n\n"+
			"<b>Status Changed:</b>\n%s → %s",
		displayName(ev.Alias, ev.TrackingNumber),
		ev.TrackingNumber,
		ev.Carrier,
		statusLine(ev.Previous),
		statusLine(ev.New),
	)
	return n.send(ctx, msg)
}

func (n *TelegramNotifier) NotifyDelivered(ctx context.Context, ev domain.ChangeEvent) error {
	msg := fmt.Sprintf(
		"<b>✅ Package Delivered!</b>\n\n"+
			"<b>Package:</b> %s\n"+
			"<b>Tracking:</b> %s\n"+
			"<b>Carrier:</b> %s\n\n"+
			"Your package has been delivered!",
		displayName(ev.Alias, ev.TrackingNumber),
		ev.TrackingNumber,
		ev.Carrier,
	)
	return n.send(ctx, msg)
}

func (n *TelegramNotifier) NotifyTrackingFailure(ctx context.Context, f domain.TrackingFailure) error {
	msg := fmt.Sprintf(
		"<b>⚠️ Tracking Error</b>\n\n"+
			"<b>Package:</b> %s\n"+
			"<b>Tracking:</b> %s\n"+
			"<b>Carrier:</b> %s\n\n"+
			"<b>Error:</b> %s",
		displayName(f.Alias, f.TrackingNumber),
		f.TrackingNumber,
		f.Carrier,
		f.Reason,
	)
	return n.send(ctx, msg)
}

func (n *TelegramNotifier) send(ctx context.Context, text string) error {
	if n.botToken == "" || n.chatID == "" {
		return fmt.Errorf("%w: telegram notifier not configured", domain.ErrDeliveryUnavailable)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", text)
	form.Set("parse_mode", "HTML")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDeliveryUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: telegram returned %s", domain.ErrDeliveryUnavailable, resp.Status)
	}
	return nil
}

func displayName(alias, trackingNumber string) string {
	if alias != "" {
		return alias
	}
	return trackingNumber
}

func statusLine(s domain.PackageStatus) string {
	if s.Description != "" && s.Description != s.Code {
		return fmt.Sprintf("%s (%s)", s.Code, s.Description)
	}
	return s.Code
}
