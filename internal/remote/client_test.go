package remote

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sahilbhatiani/net-worth-tracker/internal/auth"
	"github.com/sahilbhatiani/net-worth-tracker/internal/daemon"
	"github.com/sahilbhatiani/net-worth-tracker/internal/docstore"
	"github.com/sahilbhatiani/net-worth-tracker/internal/model"
)

func startServer(t *testing.T) *Client {
	t.Helper()
	gin.SetMode(gin.TestMode)
	st, err := docstore.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "docs.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = st.Close() })
	iss, err := auth.NewIssuer("remote-test-secret-0123", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(daemon.New(daemon.Config{Store: st, Issuer: iss, AccessLog: io.Discard}).Handler())
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func signIn(t *testing.T, c *Client, email string) auth.Identity {
	t.Helper()
	ctx := context.Background()
	if err := c.Register(ctx, email, "hunter22"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	creds, err := c.Login(ctx, email, "hunter22")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	return auth.Identity{UID: creds.UID, Email: creds.Email, Server: creds.Server, Token: creds.Token}
}

func TestNewClient_RejectsBadURL(t *testing.T) {
	for _, u := range []string{"", "ftp://x", "localhost:8787"} {
		if _, err := NewClient(u); err == nil {
			t.Errorf("NewClient(%q) = nil error", u)
		}
	}
}

func TestClient_LoginErrors(t *testing.T) {
	c := startServer(t)
	ctx := context.Background()
	signIn(t, c, "dup@example.com")

	if err := c.Register(ctx, "dup@example.com", "hunter22"); !errors.Is(err, ErrConflict) {
		t.Errorf("second Register err = %v, want ErrConflict", err)
	}
	if _, err := c.Login(ctx, "dup@example.com", "wrong-password"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("bad Login err = %v, want ErrUnauthorized", err)
	}
	if _, _, err := c.Get(ctx, auth.Identity{Token: "bogus"}); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Get with bogus token err = %v, want ErrUnauthorized", err)
	}
}

func TestClient_RoundTrip(t *testing.T) {
	c := startServer(t)
	ctx := context.Background()
	id := signIn(t, c, "rt@example.com")

	if _, ok, err := c.Get(ctx, id); err != nil || ok {
		t.Fatalf("Get before write = ok %v, err %v", ok, err)
	}

	err := c.Merge(ctx, id, map[string]any{
		"entries": []any{
			map[string]any{"id": "1", "amount": 1000.0, "date": "2024-01-01"},
			map[string]any{"id": "2", "amount": 1500.0, "date": "2024-07-01", "notes": "raise"},
		},
		"targetSettings": map[string]any{"annualSavings": 3652.5, "startDate": "2024-01-01", "startAmount": 1000.0},
	})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}

	doc, ok, err := c.Get(ctx, id)
	if err != nil || !ok {
		t.Fatalf("Get = ok %v, err %v", ok, err)
	}
	if len(doc.Entries) != 2 || doc.Entries[1].Notes != "raise" {
		t.Errorf("entries = %+v", doc.Entries)
	}
	if doc.TargetSettings == nil || doc.TargetSettings.AnnualSavings != 3652.5 {
		t.Errorf("target = %+v", doc.TargetSettings)
	}
}

func TestClient_Watch(t *testing.T) {
	c := startServer(t)
	id := signIn(t, c, "watch@example.com")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updates, err := c.Watch(ctx, id)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	first := <-updates
	if first.Exists {
		t.Fatalf("first update = %+v, want missing document", first)
	}

	if err := c.Merge(context.Background(), id, map[string]any{"entries": []any{}}); err != nil {
		t.Fatal(err)
	}
	select {
	case u := <-updates:
		if !u.Exists || u.Version != 1 || u.Doc.Entries == nil || u.Doc.TargetSettings != nil {
			t.Errorf("update = %+v", u)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no update after write")
	}

	cancel()
	for range updates {
	}
}

func TestReadStream_ParsesFrames(t *testing.T) {
	stream := strings.Join([]string{
		": ping",
		"",
		"event: snapshot",
		`data: {"version":3,"exists":true,"fields":{"entries":[{"id":"a","amount":5,"date":"2024-02-02"}]}}`,
		"",
		"event: other",
		"data: {}",
		"",
	}, "\n")

	out := make(chan Update, 4)
	readStream(context.Background(), strings.NewReader(stream), out)
	close(out)

	var got []Update
	for u := range out {
		got = append(got, u)
	}
	if len(got) != 1 {
		t.Fatalf("updates = %d, want 1", len(got))
	}
	want, _ := model.ParseDate("2024-02-02")
	if got[0].Version != 3 || got[0].Doc.Entries[0].Date != want {
		t.Errorf("update = %+v", got[0])
	}
}

func TestDecodeDocument_Defaults(t *testing.T) {
	doc, err := DecodeDocument(map[string]any{})
	if err != nil {
		t.Fatal(err)
	}
	if doc.Entries == nil || len(doc.Entries) != 0 || doc.TargetSettings != nil {
		t.Errorf("doc = %+v", doc)
	}
	if _, err := DecodeDocument(map[string]any{"entries": "nope"}); err == nil {
		t.Error("DecodeDocument accepted a malformed entry list")
	}
}
