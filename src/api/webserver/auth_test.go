package webserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ZIKOpl/SITE-VOUCH/src/api/types"
)

func TestSessionRoundTrip(t *testing.T) {
	p := types.Principal{ID: "42", Tag: "user#1", Avatar: "abc", Admin: true}
	token, err := issueSession(p, []byte(testSecret))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	got, ok := parseSession(token, []byte(testSecret))
	if !ok {
		t.Fatalf("parse rejected valid token")
	}
	if got != p {
		t.Fatalf("principal = %+v, want %+v", got, p)
	}
}

func TestSessionRejectsWrongSecret(t *testing.T) {
	token, err := issueSession(types.Principal{ID: "42"}, []byte(testSecret))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, ok := parseSession(token, []byte("other-secret")); ok {
		t.Fatalf("token verified with the wrong secret")
	}
}

func TestHomeReportsPrincipal(t *testing.T) {
	r := newTestRouter(newFakeStore(), newFakeNotifier())

	rr := do(t, r, http.MethodGet, "/", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("code = %d", rr.Code)
	}
	if payload := decodeBody(t, rr); payload["authenticated"] != false {
		t.Fatalf("anonymous payload = %v", payload)
	}

	rr = do(t, r, http.MethodGet, "/", "", admin(t))
	payload := decodeBody(t, rr)
	if payload["authenticated"] != true {
		t.Fatalf("payload = %v", payload)
	}
	user := payload["user"].(map[string]any)
	if user["admin"] != true || user["id"] != "11" {
		t.Fatalf("user = %v", user)
	}
}

func TestPrincipalsAcceptsBearerHeader(t *testing.T) {
	r := newTestRouter(newFakeStore(), newFakeNotifier())
	token, err := issueSession(types.Principal{ID: "42", Tag: "user#1"}, []byte(testSecret))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if payload := decodeBody(t, rr); payload["authenticated"] != true {
		t.Fatalf("payload = %v", payload)
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	r := newTestRouter(newFakeStore(), newFakeNotifier())
	rr := do(t, r, http.MethodGet, "/logout", "", admin(t))
	if rr.Code != http.StatusFound {
		t.Fatalf("code = %d, want 302", rr.Code)
	}
	cleared := false
	for _, c := range rr.Result().Cookies() {
		if c.Name == sessionCookie && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatalf("session cookie not cleared: %v", rr.Result().Cookies())
	}
}

func guildAdminFixture(t *testing.T, body string, status int) *Auth {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/@me/guilds" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	a := NewAuth(testConfig(), nil)
	a.apiBase = ts.URL
	return a
}

func TestIsGuildAdminBitmask(t *testing.T) {
	cases := []struct {
		name string
		body string
		want bool
	}{
		{"admin bit set", `[{"id":"guild-1","permissions":"8"}]`, true},
		{"admin among other bits", `[{"id":"guild-1","permissions":"2147483647"}]`, true},
		{"bit not set", `[{"id":"guild-1","permissions":"104324673"}]`, false},
		{"wrong guild", `[{"id":"guild-2","permissions":"8"}]`, false},
		{"empty membership", `[]`, false},
		{"unparsable bitmask", `[{"id":"guild-1","permissions":"lots"}]`, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := guildAdminFixture(t, tc.body, http.StatusOK)
			if got := a.isGuildAdmin(context.Background(), "tok"); got != tc.want {
				t.Fatalf("isGuildAdmin = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsGuildAdminFailsClosedOnAPIError(t *testing.T) {
	a := guildAdminFixture(t, `{"message":"401"}`, http.StatusUnauthorized)
	if a.isGuildAdmin(context.Background(), "tok") {
		t.Fatalf("API failure granted admin")
	}
}
