package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aubrey-sherman/baby-bootcamp/internal/timezone"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	tz, err := timezone.NewZone("America/New_York")
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}
	c := New(ts.URL, "test-token", tz)
	c.HTTPClient = ts.Client()
	return c, ts
}

func TestRequestAttachesSessionHeaders(t *testing.T) {
	t.Parallel()
	var gotAuth, gotZone, gotReqID string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotZone = r.Header.Get("X-User-Timezone")
		gotReqID = r.Header.Get("X-Request-ID")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"blocks": []}`))
	})

	if _, err := c.GetUserBlocksWithEntries(context.Background()); err != nil {
		t.Fatalf("get blocks: %v", err)
	}
	if gotAuth != "Bearer test-token" {
		t.Fatalf("authorization header %q", gotAuth)
	}
	if gotZone != "America/New_York" {
		t.Fatalf("timezone header %q", gotZone)
	}
	if gotReqID == "" {
		t.Fatalf("missing request id header")
	}
}

func TestGetUserBlocksWithEntriesSortsByNumber(t *testing.T) {
	t.Parallel()
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"blocks": [
			{"id": "b3", "number": 3, "isEliminating": false, "feedingEntries": []},
			{"id": "b1", "number": 1, "isEliminating": false, "feedingEntries": []},
			{"id": "b2", "number": 2, "isEliminating": true, "feedingEntries": []}
		]}`))
	})

	blocks, err := c.GetUserBlocksWithEntries(context.Background())
	if err != nil {
		t.Fatalf("get blocks: %v", err)
	}
	if len(blocks) != 3 || blocks[0].ID != "b1" || blocks[1].ID != "b2" || blocks[2].ID != "b3" {
		t.Fatalf("blocks not sorted by number: %+v", blocks)
	}
}

func TestGetBlocksForWeekSendsZoneQualifiedRange(t *testing.T) {
	t.Parallel()
	var gotStart, gotEnd string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotStart = r.URL.Query().Get("startDate")
		gotEnd = r.URL.Query().Get("endDate")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"blocks": []}`))
	})

	start := time.Date(2024, 1, 14, 5, 0, 0, 0, time.UTC) // Sunday midnight Eastern
	end := start.AddDate(0, 0, 6)
	if _, err := c.GetBlocksForWeek(context.Background(), start, end); err != nil {
		t.Fatalf("get blocks for week: %v", err)
	}
	if gotStart != "2024-01-14T00:00:00-05:00" {
		t.Fatalf("unexpected startDate %q", gotStart)
	}
	if gotEnd != "2024-01-20T00:00:00-05:00" {
		t.Fatalf("unexpected endDate %q", gotEnd)
	}
}

func TestCreateBlockMergesSeedEntries(t *testing.T) {
	t.Parallel()
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"block": {"id": "b1", "number": 1, "isEliminating": false},
			"entries": [{"id": "e1", "blockId": "b1", "feedingTime": "2024-01-15T03:00:00Z", "volumeInOunces": 4}]
		}`))
	})

	block, err := c.CreateBlockWithEntries(context.Background(), false)
	if err != nil {
		t.Fatalf("create block: %v", err)
	}
	if block.ID != "b1" || len(block.FeedingEntries) != 1 || block.FeedingEntries[0].ID != "e1" {
		t.Fatalf("seed entries not merged: %+v", block)
	}
}

func TestErrorEnvelopeWithMessageList(t *testing.T) {
	t.Parallel()
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"message": ["username is required", "password too short"]}}`))
	})

	_, err := c.LogInUser(context.Background(), credentialsFixture())
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected RequestError, got %T: %v", err, err)
	}
	if len(reqErr.Messages) != 2 || reqErr.Messages[0] != "username is required" {
		t.Fatalf("unexpected messages %+v", reqErr.Messages)
	}
}

func TestErrorEnvelopeWithSingleMessageBecomesList(t *testing.T) {
	t.Parallel()
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "invalid credentials"}}`))
	})

	_, err := c.LogInUser(context.Background(), credentialsFixture())
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected RequestError, got %T: %v", err, err)
	}
	if len(reqErr.Messages) != 1 || reqErr.Messages[0] != "invalid credentials" {
		t.Fatalf("unexpected messages %+v", reqErr.Messages)
	}
}

func TestGetCurrentUserNotFound(t *testing.T) {
	t.Parallel()
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.GetCurrentUser(context.Background(), "ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLogInStoresTokenOnClient(t *testing.T) {
	t.Parallel()
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token": "fresh-token"}`))
	})

	token, err := c.LogInUser(context.Background(), credentialsFixture())
	if err != nil {
		t.Fatalf("log in: %v", err)
	}
	if token != "fresh-token" || c.Token != "fresh-token" {
		t.Fatalf("token not stored: %q / %q", token, c.Token)
	}
}
