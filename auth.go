package folio

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/eringen/folio/api"
)

// AuthState is where a request stands in the sign-in lifecycle.
type AuthState int

const (
	// StateLoading means the session has not been read yet.
	StateLoading AuthState = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s AuthState) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "loading"
	}
}

// Identity is the auth state of one request.
type Identity struct {
	State AuthState
	User  api.User
	Token string
}

// Authenticated reports whether a token and user are present.
func (id Identity) Authenticated() bool {
	return id.State == StateAuthenticated
}

// IsAdmin reports whether the signed-in user may use the dashboard.
func (id Identity) IsAdmin() bool {
	return id.Authenticated() && id.User.IsAdmin
}

const identityKey = "folio.identity"

// CurrentIdentity returns the identity resolved for this request. Before the
// identity middleware has run it reports StateLoading.
func CurrentIdentity(c echo.Context) Identity {
	if id, ok := c.Get(identityKey).(Identity); ok {
		return id
	}
	return Identity{State: StateLoading}
}

// Authenticator signs users in against the content API and keeps the
// result in the TokenStore.
type Authenticator struct {
	client *api.Client
	tokens *TokenStore
	log    logrus.FieldLogger
}

// NewAuthenticator wires an Authenticator.
func NewAuthenticator(client *api.Client, tokens *TokenStore, log logrus.FieldLogger) *Authenticator {
	return &Authenticator{client: client, tokens: tokens, log: log}
}

// Login posts the credentials to the auth server. On success the token and
// user are persisted and become the request's identity. On failure the
// store is left untouched and the error is returned.
func (a *Authenticator) Login(c echo.Context, email, password string) (api.User, error) {
	email = strings.TrimSpace(email)
	user, token, err := a.client.Login(c.Request().Context(), email, password)
	if err != nil {
		return api.User{}, err
	}
	if err := a.tokens.Set(c, user, token, 0); err != nil {
		return api.User{}, fmt.Errorf("folio: persist session: %w", err)
	}
	c.Set(identityKey, Identity{State: StateAuthenticated, User: user, Token: token})
	a.log.WithFields(logrus.Fields{"user_id": user.ID, "admin": user.IsAdmin}).Info("user logged in")
	return user, nil
}

// Logout forgets the token and user. The token is not revoked upstream.
func (a *Authenticator) Logout(c echo.Context) error {
	if err := a.tokens.Clear(c); err != nil {
		return err
	}
	c.Set(identityKey, Identity{State: StateUnauthenticated})
	return nil
}

// Resolve reads the session and returns the identity it describes.
func (a *Authenticator) Resolve(c echo.Context) Identity {
	token, ok := a.tokens.Token(c)
	if !ok {
		return Identity{State: StateUnauthenticated}
	}
	user, ok := a.tokens.User(c)
	if !ok {
		return Identity{State: StateUnauthenticated}
	}
	return Identity{State: StateAuthenticated, User: user, Token: token}
}

// Middleware resolves the identity once per request.
func (a *Authenticator) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Set(identityKey, a.Resolve(c))
		return next(c)
	}
}

// requireAdmin turns away visitors who are not signed in as an admin
// before the handler can call the API.
func requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := CurrentIdentity(c)
		switch {
		case !id.Authenticated():
			return c.Redirect(http.StatusSeeOther, "/login/")
		case !id.IsAdmin():
			return redirectWithFlash(c, FlashError, "This account does not have dashboard access.", "/login/")
		}
		return next(c)
	}
}

// sessionExpired handles a 401 from the API during an authenticated call by
// signing the user out. It reports whether err was such a rejection.
func (a *App) sessionExpired(c echo.Context, err error) (bool, error) {
	if !errors.Is(err, api.ErrUnauthorized) {
		return false, nil
	}
	a.Log.WithField("path", c.Path()).Info("api rejected token, clearing session")
	if clearErr := a.Auth.Logout(c); clearErr != nil {
		return true, clearErr
	}
	return true, redirectWithFlash(c, FlashError, "Your session has expired. Please log in again.", "/login/")
}
