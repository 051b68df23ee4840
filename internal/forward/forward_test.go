package forward

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestSend_PostsJSONWithBasicAuth(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "u" || pass != "p" {
			t.Errorf("basic auth = %q/%q/%v", user, pass, ok)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
	}))
	defer srv.Close()

	c := &Client{URL: srv.URL, Username: "u", Password: "p"}
	if err := c.Send(context.Background(), map[string]any{"id": "x!1"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got["id"] != "x!1" {
		t.Fatalf("unexpected body %v", got)
	}
}

func TestSend_RetriesThenFails(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := &Client{URL: srv.URL, Delay: time.Millisecond}
	err := c.Send(context.Background(), map[string]any{})
	if !errors.Is(err, ErrStatus) {
		t.Fatalf("expected ErrStatus, got %v", err)
	}
	if calls != DefaultAttempts {
		t.Fatalf("expected %d attempts, got %d", DefaultAttempts, calls)
	}
}

func TestSend_NonOKSuccessCodeIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := &Client{URL: srv.URL, Attempts: 1}
	if err := c.Send(context.Background(), map[string]any{}); !errors.Is(err, ErrStatus) {
		t.Fatalf("expected 202 to be rejected, got %v", err)
	}
}

func TestSend_RecoversOnSecondAttempt(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	c := &Client{URL: srv.URL, Delay: time.Millisecond}
	if err := c.Send(context.Background(), map[string]any{}); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

type fakeSender struct {
	sent []string
	fail map[string]bool
}

func (f *fakeSender) Send(_ context.Context, doc any) error {
	id, _ := doc.(map[string]any)["id"].(string)
	if f.fail[id] {
		return errors.New("boom")
	}
	f.sent = append(f.sent, id)
	return nil
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestIndexDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.json", `{"id":"a"}`)
	writeFile(t, dir, "b.json", `{"id":"b"}`)
	writeFile(t, dir, "c.txt", `ignored`)
	writeFile(t, dir, "d.json", `{"id":"d"}`)
	writeFile(t, dir, "e.json", `not json`)
	writeFile(t, dir, "f.json", `{"id":"f"}`)
	if err := os.Mkdir(filepath.Join(dir, "g.json"), 0o755); err != nil {
		t.Fatal(err)
	}

	s := &fakeSender{fail: map[string]bool{"f": true}}
	run, err := IndexDirectory(context.Background(), s, dir, 1)
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	if diff := cmp.Diff([]string{"b", "d"}, s.sent); diff != "" {
		t.Fatalf("sent mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"e.json", "f.json"}, run.Failures); diff != "" {
		t.Fatalf("failures mismatch (-want +got):\n%s", diff)
	}
	if run.Sent != 2 || run.End.Before(run.Start) {
		t.Fatalf("unexpected run %+v", run)
	}
}

func TestIndexDirectory_MissingDir(t *testing.T) {
	if _, err := IndexDirectory(context.Background(), &fakeSender{}, filepath.Join(t.TempDir(), "nope"), 0); err == nil {
		t.Fatalf("expected error for missing directory")
	}
}
