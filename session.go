package folio

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	"github.com/eringen/folio/api"
)

const (
	sessionName = "folio_session"
	flashName   = "folio_flash"

	keyToken     = "token"
	keyExpiresAt = "expires_at"
	keyUserID    = "user_id"
	keyUserName  = "user_name"
	keyUserEmail = "user_email"
	keyUserAdmin = "user_admin"
)

func newSessionStore(cfg SiteConfig) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   cfg.CookieSecure,
	}
	store.MaxAge(int(cfg.SessionTTL / time.Second))
	return store
}

// TokenStore persists the bearer token and the signed-in user in the
// session cookie. The cookie is signed, so a client cannot forge a user,
// but the token itself is never validated here.
type TokenStore struct {
	ttl time.Duration
	now func() time.Time
}

// NewTokenStore returns a store whose tokens expire after ttl unless the
// token carries an earlier expiry of its own.
func NewTokenStore(ttl time.Duration) *TokenStore {
	return &TokenStore{ttl: ttl, now: time.Now}
}

// Token returns the stored token, or false when none is stored or its
// lifetime hint has passed.
func (s *TokenStore) Token(c echo.Context) (string, bool) {
	sess, err := getSession(c, sessionName)
	if err != nil {
		return "", false
	}
	token, _ := sess.Values[keyToken].(string)
	if token == "" {
		return "", false
	}
	if exp, ok := sess.Values[keyExpiresAt].(int64); ok && s.now().Unix() >= exp {
		return "", false
	}
	return token, true
}

// User returns the user snapshot saved at login.
func (s *TokenStore) User(c echo.Context) (api.User, bool) {
	sess, err := getSession(c, sessionName)
	if err != nil {
		return api.User{}, false
	}
	u := api.User{}
	u.ID, _ = sess.Values[keyUserID].(string)
	u.Name, _ = sess.Values[keyUserName].(string)
	u.Email, _ = sess.Values[keyUserEmail].(string)
	u.IsAdmin, _ = sess.Values[keyUserAdmin].(bool)
	if u.Validate() != nil {
		return api.User{}, false
	}
	return u, true
}

// Set stores token and user. ttlHint bounds how long the cookie lives; zero
// uses the store default. A JWT exp claim shortens it further.
func (s *TokenStore) Set(c echo.Context, user api.User, token string, ttlHint time.Duration) error {
	sess, err := getSession(c, sessionName)
	if err != nil {
		return err
	}
	if ttlHint <= 0 {
		ttlHint = s.ttl
	}
	ttl := tokenTTL(token, ttlHint, s.now())

	sess.Values[keyToken] = token
	sess.Values[keyExpiresAt] = s.now().Add(ttl).Unix()
	sess.Values[keyUserID] = user.ID
	sess.Values[keyUserName] = user.Name
	sess.Values[keyUserEmail] = user.Email
	sess.Values[keyUserAdmin] = user.IsAdmin
	sess.Options.MaxAge = int(ttl / time.Second)
	return sess.Save(c.Request(), c.Response())
}

// Clear removes the token and user by expiring the cookie.
func (s *TokenStore) Clear(c echo.Context) error {
	sess, err := getSession(c, sessionName)
	if err != nil {
		return err
	}
	for k := range sess.Values {
		delete(sess.Values, k)
	}
	sess.Options.MaxAge = -1
	return sess.Save(c.Request(), c.Response())
}

// tokenTTL caps ttl at the token's own exp claim when the token is a JWT
// whose expiry is still in the future. The signature is not checked.
func tokenTTL(token string, ttl time.Duration, now time.Time) time.Duration {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ttl
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return ttl
	}
	if left := exp.Sub(now); left > 0 && left < ttl {
		return left
	}
	return ttl
}

// getSession loads a named session. A cookie that fails to decode yields a
// fresh session rather than an error.
func getSession(c echo.Context, name string) (*sessions.Session, error) {
	sess, err := session.Get(name, c)
	if sess != nil {
		return sess, nil
	}
	return nil, err
}

// addFlash queues a toast for the next rendered page.
func addFlash(c echo.Context, kind, msg string) error {
	sess, err := getSession(c, flashName)
	if err != nil {
		return err
	}
	sess.AddFlash(msg, kind)
	return sess.Save(c.Request(), c.Response())
}

// takeFlashes returns and clears the queued toasts.
func takeFlashes(c echo.Context) []Flash {
	sess, err := getSession(c, flashName)
	if err != nil {
		return nil
	}
	var out []Flash
	for _, kind := range []string{FlashSuccess, FlashError} {
		for _, f := range sess.Flashes(kind) {
			if msg, ok := f.(string); ok && msg != "" {
				out = append(out, Flash{Kind: kind, Message: msg})
			}
		}
	}
	if len(out) > 0 {
		_ = sess.Save(c.Request(), c.Response())
	}
	return out
}

// redirectWithFlash queues a toast and redirects with 303.
func redirectWithFlash(c echo.Context, kind, msg, to string) error {
	if err := addFlash(c, kind, msg); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, to)
}
