package syncer

import (
	"context"
	"io"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahilbhatiani/net-worth-tracker/internal/auth"
	"github.com/sahilbhatiani/net-worth-tracker/internal/daemon"
	"github.com/sahilbhatiani/net-worth-tracker/internal/docstore"
	"github.com/sahilbhatiani/net-worth-tracker/internal/model"
	"github.com/sahilbhatiani/net-worth-tracker/internal/remote"
	"github.com/sahilbhatiani/net-worth-tracker/internal/state"
)

// startSyncServer runs a document server and returns a client signed in as
// a fresh user.
func startSyncServer(t *testing.T) (*remote.Client, auth.Identity) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store, err := docstore.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "docs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	iss, err := auth.NewIssuer("syncer-test-secret-0123", time.Hour)
	require.NoError(t, err)

	srv := httptest.NewServer(daemon.New(daemon.Config{Store: store, Issuer: iss, AccessLog: io.Discard}).Handler())
	t.Cleanup(srv.Close)

	c, err := remote.NewClient(srv.URL)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.Register(ctx, "sync@example.com", "hunter22"))
	creds, err := c.Login(ctx, "sync@example.com", "hunter22")
	require.NoError(t, err)
	return c, auth.Identity{UID: creds.UID, Email: creds.Email, Server: creds.Server, Token: creds.Token}
}

func sampleTarget(t *testing.T) model.TargetSettings {
	return model.TargetSettings{AnnualSavings: 1000, StartDate: date(t, "2024-01-01"), StartAmount: 5}
}

func TestGatewayRemote_ClearedTargetSurvivesReload(t *testing.T) {
	c, id := startSyncServer(t)

	st := state.New()
	g := New(st, c, nil, Options{})
	g.Start(&fakeAuth{id: id, ok: true})

	st.AddEntry(model.Entry{ID: "1", Amount: 1000, Date: date(t, "2024-01-01")})
	st.SetTarget(sampleTarget(t))
	g.Flush()

	doc, ok, err := c.Get(context.Background(), id)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, doc.TargetSettings)

	st.ClearTarget()
	g.Flush()
	g.Close()
	assert.Empty(t, g.Status().LastError)

	// A new session starts from nothing and loads the remote document.
	fresh := state.New()
	g2 := New(fresh, c, nil, Options{})
	g2.Start(&fakeAuth{id: id, ok: true})
	defer g2.Close()

	assert.Nil(t, fresh.Target(), "the cleared target must not come back")
	require.Len(t, fresh.Entries(), 1)
	assert.Equal(t, "1", fresh.Entries()[0].ID)
}

func TestGatewayRemote_ClearedTargetWithLiveUpdates(t *testing.T) {
	c, id := startSyncServer(t)

	st := state.New()
	clearedEcho := make(chan struct{}, 1)
	st.Subscribe(func(ch state.Change) {
		// The echo of the set carries a target; only the clear's echo lacks one.
		if ch.Origin == state.Remote && ch.Doc.TargetSettings == nil {
			select {
			case clearedEcho <- struct{}{}:
			default:
			}
		}
	})

	g := New(st, c, nil, Options{LiveUpdates: true, ReconnectDelay: time.Hour})
	g.Start(&fakeAuth{id: id, ok: true})
	defer g.Close()

	st.SetTarget(sampleTarget(t))
	g.Flush()
	st.ClearTarget()
	g.Flush()

	select {
	case <-clearedEcho:
	case <-time.After(5 * time.Second):
		t.Fatal("no change stream echo for the cleared target")
	}
	assert.Nil(t, st.Target())

	doc, ok, err := c.Get(context.Background(), id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Nil(t, doc.TargetSettings)
}

func TestGatewayRemote_NoValueFieldsRoundTrip(t *testing.T) {
	c, id := startSyncServer(t)

	st := state.New()
	g := New(st, c, nil, Options{})
	g.Start(&fakeAuth{id: id, ok: true})

	st.AddEntries(
		model.Entry{ID: "a", Amount: 10, Date: date(t, "2024-01-01")},
		model.Entry{ID: "b", Amount: 20, Date: date(t, "2024-02-01"), Notes: "raise"},
	)
	g.Flush()
	g.Close()

	fields, ok, err := c.Fields(context.Background(), id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotContains(t, fields, "targetSettings")
	entries := fields["entries"].([]any)
	require.Len(t, entries, 2)
	assert.NotContains(t, entries[0], "notes")
	assert.Equal(t, "raise", entries[1].(map[string]any)["notes"])

	fresh := state.New()
	g2 := New(fresh, c, nil, Options{})
	g2.Start(&fakeAuth{id: id, ok: true})
	defer g2.Close()
	assert.Equal(t, st.Snapshot(), fresh.Snapshot())
}
