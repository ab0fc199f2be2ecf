package notify

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/driftwatch/sentinel/internal/db"
)

func testLogger() *log.Logger {
	return log.New(testDiscard{}, "", 0)
}

type testDiscard struct{}

func (testDiscard) Write(p []byte) (int, error) { return len(p), nil }

func newNotifyTestStore(t *testing.T) *db.Store {
	t.Helper()
	store, err := db.NewStore(db.NewTestConfig())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newChannel(t *testing.T, store *db.Store, configJSON string) db.NotificationChannel {
	t.Helper()
	ch, err := store.CreateNotificationChannel(db.NotificationChannel{
		Name:       "c",
		Type:       "webhook",
		ConfigJSON: configJSON,
		IsActive:   true,
		CreatedAt:  0,
	})
	if err != nil {
		t.Fatalf("CreateNotificationChannel: %v", err)
	}
	return ch
}

func waitForDelivery(t *testing.T, store *db.Store, eventKey string) db.NotificationDelivery {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		deliveries, err := store.ListDeliveries(eventKey)
		if err != nil {
			t.Fatalf("ListDeliveries: %v", err)
		}
		// The row is claimed as "pending" before the send; wait for the
		// final outcome.
		if len(deliveries) > 0 && deliveries[0].Status != "pending" {
			return deliveries[0]
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("no delivery recorded for %s", eventKey)
	return db.NotificationDelivery{}
}

func TestDispatchDeliversAndRecords(t *testing.T) {
	var gotBody []byte
	var gotSig string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotSig = r.Header.Get("X-Signature")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := newNotifyTestStore(t)
	cfg := fmt.Sprintf(`{"url":%q}`, srv.URL)
	ch := newChannel(t, store, cfg)

	svc := NewService(store, testLogger())
	svc.Start()
	defer svc.Stop()

	payload := Payload{
		Event:     "down",
		EventID:   "evt-1",
		Timestamp: 1000,
		Monitor:   PayloadMonitor{ID: "m1", Name: "m", Type: "http", Target: "https://example.com"},
		State:     PayloadState{Status: "down"},
	}
	svc.Enqueue(Request{EventKey: "evt-1:down", Channels: []db.NotificationChannel{ch}, Payload: payload})

	d := waitForDelivery(t, store, "evt-1:down")
	if d.Status != "success" {
		t.Errorf("Status = %q, want success", d.Status)
	}
	if d.HTTPStatus == nil || *d.HTTPStatus != 200 {
		t.Errorf("HTTPStatus = %v, want 200", d.HTTPStatus)
	}
	if gotSig != "" {
		t.Errorf("X-Signature = %q, want empty (signing disabled)", gotSig)
	}

	var decoded Payload
	if err := json.Unmarshal(gotBody, &decoded); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if decoded.Monitor.ID != "m1" {
		t.Errorf("decoded monitor id = %q, want m1", decoded.Monitor.ID)
	}
}

func TestDispatchSignsWhenEnabled(t *testing.T) {
	t.Setenv("WEBHOOK_SECRET", "s3cret")

	var gotSig string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get("X-Signature")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := newNotifyTestStore(t)
	cfg := fmt.Sprintf(`{"url":%q,"signing":{"enabled":true,"secret_ref":"WEBHOOK_SECRET"}}`, srv.URL)
	ch := newChannel(t, store, cfg)

	svc := NewService(store, testLogger())
	svc.Start()
	defer svc.Stop()

	svc.Enqueue(Request{
		EventKey: "evt-2:down",
		Channels: []db.NotificationChannel{ch},
		Payload:  Payload{Event: "down", EventID: "evt-2"},
	})

	waitForDelivery(t, store, "evt-2:down")
	if gotSig == "" {
		t.Fatal("expected X-Signature header to be set")
	}
	if len(gotSig) < len("sha256=") || gotSig[:7] != "sha256=" {
		t.Errorf("X-Signature = %q, want sha256=... prefix", gotSig)
	}
}

func TestDispatchSkipsAlreadyDelivered(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := newNotifyTestStore(t)
	cfg := fmt.Sprintf(`{"url":%q}`, srv.URL)
	ch := newChannel(t, store, cfg)

	svc := NewService(store, testLogger())
	// Pre-record a delivery as if a previous dispatch already ran.
	ok, err := store.RecordDelivery(db.NotificationDelivery{
		EventKey: "evt-3:down", ChannelID: ch.ID, Status: "success", CreatedAt: 0,
	})
	if err != nil || !ok {
		t.Fatalf("seed RecordDelivery: ok=%v err=%v", ok, err)
	}

	svc.dispatchOne("evt-3:down", ch, []byte(`{}`))

	if calls != 0 {
		t.Errorf("expected no HTTP call for already-delivered event, got %d", calls)
	}
}

func TestDispatchRecordsFailureOnNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	store := newNotifyTestStore(t)
	cfg := fmt.Sprintf(`{"url":%q}`, srv.URL)
	ch := newChannel(t, store, cfg)

	svc := NewService(store, testLogger())
	svc.dispatchOne("evt-4:down", ch, []byte(`{}`))

	d := waitForDelivery(t, store, "evt-4:down")
	if d.Status != "failed" {
		t.Errorf("Status = %q, want failed", d.Status)
	}
	if d.HTTPStatus == nil || *d.HTTPStatus != 500 {
		t.Errorf("HTTPStatus = %v, want 500", d.HTTPStatus)
	}
}
