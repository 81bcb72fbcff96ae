package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glcc/command-center/internal/core/domain"
)

func domesticServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *DomesticClient) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, NewDomesticClient(srv.URL, srv.Client())
}

func TestDomestic_Fetch(t *testing.T) {
	_, client := domesticServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req graphqlRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		if req.Variables["carrierId"] != "kr.cj" || req.Variables["trackingNumber"] != "1234567890" {
			t.Fatalf("wrong variables: %+v", req.Variables)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": {
				"track": {
					"state": {"id": "out_for_delivery", "text": "배달출발"},
					"progresses": [
						{
							"time": "2026-08-29T09:15:00+09:00",
							"location": {"name": "Seoul Hub"},
							"status": {"id": "at_pickup", "text": "집화처리"},
							"description": "상품을 인수했습니다"
						},
						{
							"time": "2026-08-29T14:02:00+09:00",
							"location": {"name": "Gangnam"},
							"status": {"id": "out_for_delivery", "text": "배달출발"},
							"description": ""
						}
					],
					"carrier": {"id": "kr.cj", "name": "CJ Logistics"}
				}
			}
		}`))
	})

	result, err := client.Fetch(context.Background(), "kr.cj", "1234567890")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if result.StatusCode != "out_for_delivery" || result.StatusDescription != "배달출발" {
		t.Fatalf("wrong status: %s / %s", result.StatusCode, result.StatusDescription)
	}
	if len(result.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(result.Events))
	}
	if result.Events[0].Location != "Seoul Hub" || result.Events[0].Description != "상품을 인수했습니다" {
		t.Fatalf("first event wrong: %+v", result.Events[0])
	}
	// Empty description falls back to the status text.
	if result.Events[1].Description != "배달출발" {
		t.Fatalf("description fallback missing: %+v", result.Events[1])
	}
	if result.Events[0].Timestamp.IsZero() {
		t.Fatal("progress timestamps should be parsed")
	}
	if result.FetchedAt.IsZero() {
		t.Fatal("FetchedAt must be stamped")
	}
}

func TestDomestic_NotFoundMessage(t *testing.T) {
	_, client := domesticServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"errors": [{"message": "조회된 결과가 없습니다."}]}`))
	})

	_, err := client.Fetch(context.Background(), "kr.epost", "0000000000")
	if !errors.Is(err, domain.ErrTrackingNotFound) {
		t.Fatalf("expected ErrTrackingNotFound, got %v", err)
	}
}

func TestDomestic_GraphQLError(t *testing.T) {
	_, client := domesticServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"errors": [{"message": "internal carrier failure"}]}`))
	})

	_, err := client.Fetch(context.Background(), "kr.cj", "1234567890")
	if !errors.Is(err, domain.ErrBackendError) {
		t.Fatalf("expected ErrBackendError, got %v", err)
	}
}

func TestDomestic_NullTrack(t *testing.T) {
	_, client := domesticServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": {"track": null}}`))
	})

	_, err := client.Fetch(context.Background(), "kr.cj", "1234567890")
	if !errors.Is(err, domain.ErrTrackingNotFound) {
		t.Fatalf("expected ErrTrackingNotFound, got %v", err)
	}
}

func TestDomestic_ServerError(t *testing.T) {
	_, client := domesticServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := client.Fetch(context.Background(), "kr.cj", "1234567890")
	if !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
}

func TestDomestic_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	client := NewDomesticClient(srv.URL, nil)
	srv.Close() // connection refused from here on

	_, err := client.Fetch(context.Background(), "kr.cj", "1234567890")
	if !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
}

func TestIsNotFoundMessage(t *testing.T) {
	cases := []struct {
		msg  string
		want bool
	}{
		{"Tracking number Not Found", true},
		{"no tracking info available", true},
		{"조회된 결과가 없습니다.", true},
		{"rate limit exceeded", false},
	}
	for _, tc := range cases {
		if got := isNotFoundMessage(tc.msg); got != tc.want {
			t.Errorf("isNotFoundMessage(%q) = %v, want %v", tc.msg, got, tc.want)
		}
	}
}
