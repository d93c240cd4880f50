package webserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ZIKOpl/SITE-VOUCH/src/api/config"
	"github.com/ZIKOpl/SITE-VOUCH/src/api/data"
	"github.com/ZIKOpl/SITE-VOUCH/src/api/types"
	"github.com/ZIKOpl/SITE-VOUCH/src/webclient"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// adminBit is Discord's ADMINISTRATOR permission.
const adminBit = 0x8

type Auth struct {
	cfg  config.Config
	rdb  *redis.Client
	http *http.Client

	// Overridable for tests.
	authorizeURL string
	tokenURL     string
	apiBase      string
}

func NewAuth(cfg config.Config, rdb *redis.Client) *Auth {
	return &Auth{
		cfg:          cfg,
		rdb:          rdb,
		http:         webclient.NewDefault(15 * time.Second),
		authorizeURL: "https://discord.com/oauth2/authorize",
		tokenURL:     "https://discord.com/api/oauth2/token",
		apiBase:      "https://discord.com/api",
	}
}

// Login starts the OAuth handshake: one-shot state nonce, then off to
// Discord's consent screen.
func (a *Auth) Login(c *gin.Context) {
	state := uuid.NewString()
	if err := data.SetOAuthState(c, a.rdb, state); err != nil {
		log.Printf("auth: store state: %v", err)
		c.Redirect(http.StatusFound, "/login-failed")
		return
	}
	q := url.Values{}
	q.Set("client_id", a.cfg.DiscordClientID)
	q.Set("redirect_uri", a.cfg.DiscordCallbackURL)
	q.Set("response_type", "code")
	q.Set("scope", "identify guilds")
	q.Set("state", state)
	c.Redirect(http.StatusFound, a.authorizeURL+"?"+q.Encode())
}

// Callback finishes the handshake: state must round-trip, code is exchanged
// for a bearer token, the profile and guild list decide the principal. Any
// failure past the state check leaves the user logged out (fail-closed) and
// redirects to /login-failed.
func (a *Auth) Callback(c *gin.Context) {
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" || !data.TakeOAuthState(c, a.rdb, state) {
		c.Redirect(http.StatusFound, "/login-failed")
		return
	}

	token, err := a.exchangeCode(c, code)
	if err != nil {
		log.Printf("auth: code exchange: %v", err)
		c.Redirect(http.StatusFound, "/login-failed")
		return
	}

	var user struct {
		ID            string `json:"id"`
		Username      string `json:"username"`
		GlobalName    string `json:"global_name"`
		Discriminator string `json:"discriminator"`
		Avatar        string `json:"avatar"`
	}
	if err := a.apiGet(c, token, "/users/@me", &user); err != nil || user.ID == "" {
		log.Printf("auth: fetch profile: %v", err)
		c.Redirect(http.StatusFound, "/login-failed")
		return
	}

	p := types.Principal{
		ID:     user.ID,
		Tag:    user.Username,
		Avatar: user.Avatar,
		Admin:  a.isGuildAdmin(c, token),
	}
	if user.Discriminator != "" && user.Discriminator != "0" {
		p.Tag = user.Username + "#" + user.Discriminator
	}

	session, err := issueSession(p, []byte(a.cfg.SessionSecret))
	if err != nil {
		log.Printf("auth: issue session: %v", err)
		c.Redirect(http.StatusFound, "/login-failed")
		return
	}
	c.SetCookie(sessionCookie, session, int(sessionTTL.Seconds()), "/", "", false, true)
	c.Redirect(http.StatusFound, "/")
}

// isGuildAdmin checks the membership list for the configured guild and its
// administrator bit. Every failure mode reads as "not admin".
func (a *Auth) isGuildAdmin(ctx context.Context, token string) bool {
	var memberships []struct {
		ID          string `json:"id"`
		Permissions string `json:"permissions"`
	}
	if err := a.apiGet(ctx, token, "/users/@me/guilds", &memberships); err != nil {
		log.Printf("auth: fetch guilds: %v", err)
		return false
	}
	for _, g := range memberships {
		if g.ID != a.cfg.GuildID {
			continue
		}
		perms, err := strconv.ParseUint(g.Permissions, 10, 64)
		if err != nil {
			return false
		}
		return perms&adminBit != 0
	}
	return false
}

func (a *Auth) Logout(c *gin.Context) {
	c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
	c.Redirect(http.StatusFound, "/")
}

func (a *Auth) LoginFailed(c *gin.Context) {
	c.String(http.StatusOK, "Discord login failed.")
}

func (a *Auth) exchangeCode(ctx context.Context, code string) (string, error) {
	form := url.Values{}
	form.Set("client_id", a.cfg.DiscordClientID)
	form.Set("client_secret", a.cfg.DiscordSecret)
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", a.cfg.DiscordCallbackURL)

	status, body, err := webclient.DoWithRetry(ctx, 2, time.Second, func() (int, []byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.tokenURL, strings.NewReader(form.Encode()))
		if err != nil {
			return 0, nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		resp, err := a.http.Do(req)
		if err != nil {
			return 0, nil, err
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return resp.StatusCode, b, err
	})
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("token endpoint: status %d", status)
	}
	var tok struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", err
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("token endpoint: empty access_token")
	}
	return tok.AccessToken, nil
}

func (a *Auth) apiGet(ctx context.Context, token, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.apiBase+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("discord %s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
