package notify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glcc/command-center/internal/core/domain"
)

type sentMessage struct {
	path   string
	chatID string
	text   string
	mode   string
}

func testNotifier(t *testing.T, status int) (*TelegramNotifier, *[]sentMessage) {
	t.Helper()
	var sent []sentMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("bad form: %v", err)
		}
		sent = append(sent, sentMessage{
			path:   r.URL.Path,
			chatID: r.FormValue("chat_id"),
			text:   r.FormValue("text"),
			mode:   r.FormValue("parse_mode"),
		})
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)

	n := NewTelegramNotifier("test-token", "42")
	n.baseURL = srv.URL
	n.client = srv.Client()
	return n, &sent
}

func testChange() domain.ChangeEvent {
	return domain.ChangeEvent{
		PackageID:      "p1",
		TrackingNumber: "EN387436585JP",
		Carrier:        "global.jppost",
		Alias:          "camera lens",
		Previous:       domain.PackageStatus{Code: "in_transit", Description: "In Transit"},
		New:            domain.PackageStatus{Code: "out_for_delivery", Description: "Out for Delivery"},
		OccurredAt:     time.Now().UTC(),
	}
}

func TestTelegram_StatusChange(t *testing.T) {
	n, sent := testNotifier(t, http.StatusOK)

	if err := n.NotifyStatusChange(context.Background(), testChange()); err != nil {
		t.Fatalf("NotifyStatusChange: %v", err)
	}
	if len(*sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(*sent))
	}
	msg := (*sent)[0]
	if msg.path != "/bottest-token/sendMessage" {
		t.Fatalf("wrong endpoint: %s", msg.path)
	}
	if msg.chatID != "42" || msg.mode != "HTML" {
		t.Fatalf("wrong form values: %+v", msg)
	}
	for _, want := range []string{"camera lens", "EN387436585JP", "in_transit", "out_for_delivery"} {
		if !strings.Contains(msg.text, want) {
			t.Errorf("message missing %q:\n%s", want, msg.text)
		}
	}
}

func TestTelegram_Delivered(t *testing.T) {
	n, sent := testNotifier(t, http.StatusOK)

	if err := n.NotifyDelivered(context.Background(), testChange()); err != nil {
		t.Fatalf("NotifyDelivered: %v", err)
	}
	if !strings.Contains((*sent)[0].text, "Delivered") {
		t.Fatalf("delivered message wrong:\n%s", (*sent)[0].text)
	}
}

func TestTelegram_TrackingFailure(t *testing.T) {
	n, sent := testNotifier(t, http.StatusOK)

	err := n.NotifyTrackingFailure(context.Background(), domain.TrackingFailure{
		TrackingNumber: "1234567890",
		Carrier:        "kr.cj",
		Reason:         "backend_unavailable",
	})
	if err != nil {
		t.Fatalf("NotifyTrackingFailure: %v", err)
	}
	msg := (*sent)[0]
	// No alias: the tracking number stands in as the display name.
	if !strings.Contains(msg.text, "backend_unavailable") || !strings.Contains(msg.text, "1234567890") {
		t.Fatalf("failure message wrong:\n%s", msg.text)
	}
}

func TestTelegram_APIError(t *testing.T) {
	n, _ := testNotifier(t, http.StatusBadGateway)

	err := n.NotifyStatusChange(context.Background(), testChange())
	if !errors.Is(err, domain.ErrDeliveryUnavailable) {
		t.Fatalf("expected ErrDeliveryUnavailable, got %v", err)
	}
}

func TestTelegram_Unconfigured(t *testing.T) {
	n := NewTelegramNotifier("", "")

	err := n.NotifyStatusChange(context.Background(), testChange())
	if !errors.Is(err, domain.ErrDeliveryUnavailable) {
		t.Fatalf("expected ErrDeliveryUnavailable, got %v", err)
	}
}

func TestStatusLine(t *testing.T) {
	cases := []struct {
		status domain.PackageStatus
		want   string
	}{
		{domain.PackageStatus{Code: "delivered", Description: "Delivered to door"}, "delivered (Delivered to door)"},
		{domain.PackageStatus{Code: "delivered", Description: "delivered"}, "delivered"},
		{domain.PackageStatus{Code: "in_transit"}, "in_transit"},
	}
	for _, tc := range cases {
		if got := statusLine(tc.status); got != tc.want {
			t.Errorf("statusLine(%+v) = %q, want %q", tc.status, got, tc.want)
		}
	}
}
