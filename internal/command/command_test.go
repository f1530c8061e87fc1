package command

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/kennedn/apinav/internal/console"
	"github.com/kennedn/apinav/internal/gateway"
	"github.com/kennedn/apinav/internal/navpath"
	"github.com/rs/zerolog"
)

func TestQuery(t *testing.T) {
	p := navpath.Path{"livingroom"}
	if got := Query(p, "on", ""); got != "/livingroom?code=on" {
		t.Fatalf("query mismatch: %s", got)
	}
	if got := Query(p, "on", "42"); got != "/livingroom?code=on&value=42" {
		t.Fatalf("query mismatch: %s", got)
	}
	if got := Query(navpath.Root(), "a b", "x&y"); got != "/?code=a%20b&value=x%26y" {
		t.Fatalf("query escaping mismatch: %s", got)
	}
}

func TestExecuteRecordsSuccess(t *testing.T) {
	var gotMethod, gotURI string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotURI = r.URL.RequestURI()
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	con := console.New(zerolog.Nop())
	gw := gateway.New(gateway.Config{BaseURL: srv.URL}, nil)
	d := NewDispatcher(gw, con, zerolog.Nop())
	d.Execute(context.Background(), navpath.Path{"livingroom"}, "on", "")

	if gotMethod != http.MethodPost || gotURI != "/livingroom?code=on" {
		t.Fatalf("request mismatch: %s %s", gotMethod, gotURI)
	}
	e, ok := con.Last()
	if !ok {
		t.Fatalf("nothing recorded")
	}
	if e.Label != "POST "+srv.URL+"/livingroom?code=on" {
		t.Fatalf("label mismatch: %s", e.Label)
	}
	if e.Body != "{\n  \"status\": \"ok\"\n}" {
		t.Fatalf("body mismatch: %s", e.Body)
	}
}

func TestExecuteRecordsFailureStatusLine(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("bad code"))
	}))
	defer srv.Close()

	con := console.New(zerolog.Nop())
	gw := gateway.New(gateway.Config{BaseURL: srv.URL}, nil)
	NewDispatcher(gw, con, zerolog.Nop()).Execute(context.Background(), navpath.Path{"tv"}, "nope", "42")

	e, _ := con.Last()
	if e.Label != "POST "+srv.URL+"/tv?code=nope&value=42" {
		t.Fatalf("label mismatch: %s", e.Label)
	}
	if e.Body != "400 bad code" {
		t.Fatalf("body mismatch: %q", e.Body)
	}
}

func TestExecutePlainTextBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("done"))
	}))
	defer srv.Close()

	con := console.New(zerolog.Nop())
	gw := gateway.New(gateway.Config{BaseURL: srv.URL}, nil)
	NewDispatcher(gw, con, zerolog.Nop()).Execute(context.Background(), navpath.Root(), "x", "")
	if e, _ := con.Last(); e.Body != "done" {
		t.Fatalf("body mismatch: %q", e.Body)
	}
}

func TestExecuteSendsOnceOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("busy"))
	}))
	defer srv.Close()

	con := console.New(zerolog.Nop())
	gw := gateway.New(gateway.Config{BaseURL: srv.URL, RetryMax: 2}, nil)
	NewDispatcher(gw, con, zerolog.Nop()).Execute(context.Background(), navpath.Path{"garage"}, "toggle", "")

	if n := calls.Load(); n != 1 {
		t.Fatalf("expected exactly one POST, got %d", n)
	}
	if e, _ := con.Last(); e.Body != "503 busy" {
		t.Fatalf("body mismatch: %q", e.Body)
	}
}
