package webserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ZIKOpl/SITE-VOUCH/src/api/config"
	"github.com/ZIKOpl/SITE-VOUCH/src/api/guild"
	"github.com/ZIKOpl/SITE-VOUCH/src/api/types"
	"github.com/gin-gonic/gin"
)

const (
	testSecret = "test-secret"
	testGuild  = "guild-1"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeStore is an in-memory GuildStore with the same lazy-create/not-found
// semantics as data.Guilds.
type fakeStore struct {
	mu   sync.Mutex
	docs map[string]*types.GuildDoc
	err  error // forced storage failure when set
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: map[string]*types.GuildDoc{}}
}

func (f *fakeStore) Get(_ context.Context, guildID string) (types.GuildDoc, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return types.GuildDoc{}, f.err
	}
	d, ok := f.docs[guildID]
	if !ok {
		return types.GuildDoc{}, guild.ErrNotFound
	}
	return *d, nil
}

func (f *fakeStore) Update(_ context.Context, guildID string, fn func(*types.GuildDoc) error) (types.GuildDoc, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return types.GuildDoc{}, f.err
	}
	d, ok := f.docs[guildID]
	if !ok {
		d = &types.GuildDoc{}
		f.docs[guildID] = d
	}
	if err := fn(d); err != nil {
		return *d, err
	}
	return *d, nil
}

func (f *fakeStore) Modify(_ context.Context, guildID string, fn func(*types.GuildDoc) error) (types.GuildDoc, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return types.GuildDoc{}, f.err
	}
	d, ok := f.docs[guildID]
	if !ok {
		return types.GuildDoc{}, guild.ErrNotFound
	}
	if err := fn(d); err != nil {
		return *d, err
	}
	return *d, nil
}

func (f *fakeStore) doc(t *testing.T, guildID string) types.GuildDoc {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[guildID]
	if !ok {
		return types.GuildDoc{}
	}
	return *d
}

// fakeNotifier records fan-out calls. Handlers notify from a goroutine, so
// assertions poll through waitFor.
type fakeNotifier struct {
	mu      sync.Mutex
	created []types.Vouch
	deleted []int
}

func newFakeNotifier() *fakeNotifier { return &fakeNotifier{} }

func (n *fakeNotifier) VouchCreated(_ string, v types.Vouch) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.created = append(n.created, v)
}

func (n *fakeNotifier) VouchDeleted(_ string, id, _ int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deleted = append(n.deleted, id)
}

func (n *fakeNotifier) createdVouches() []types.Vouch {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]types.Vouch(nil), n.created...)
}

func (n *fakeNotifier) deletedIDs() []int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]int(nil), n.deleted...)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func testConfig() config.Config {
	return config.Config{
		GuildID:            testGuild,
		SessionSecret:      testSecret,
		DiscordClientID:    "client",
		DiscordSecret:      "secret",
		DiscordCallbackURL: "http://localhost/auth/discord/callback",
		UploadDir:          "uploads",
		Port:               "3000",
	}
}

func newRouterWith(cfg config.Config, store GuildStore, notify Notifier) *gin.Engine {
	g := gin.New()
	attachRoutes(g, cfg, store, notify, nil)
	return g
}

func newTestRouter(store GuildStore, notify Notifier) *gin.Engine {
	return newRouterWith(testConfig(), store, notify)
}

func sessionFor(t *testing.T, p types.Principal) *http.Cookie {
	t.Helper()
	token, err := issueSession(p, []byte(testSecret))
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}
	return &http.Cookie{Name: sessionCookie, Value: token}
}

func member(t *testing.T) *http.Cookie {
	return sessionFor(t, types.Principal{ID: "10", Tag: "member#0"})
}

func admin(t *testing.T) *http.Cookie {
	return sessionFor(t, types.Principal{ID: "11", Tag: "admin#0", Admin: true})
}

func do(t *testing.T, r *gin.Engine, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse response %q: %v", rr.Body.String(), err)
	}
	return payload
}
