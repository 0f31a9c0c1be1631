package http

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/prompt-arena/arena/pkg/api"
	"github.com/prompt-arena/arena/pkg/auth"
	"github.com/prompt-arena/arena/pkg/auth/token"
	"github.com/prompt-arena/arena/pkg/debug"
	"github.com/prompt-arena/arena/pkg/storage"
	"github.com/prompt-arena/arena/pkg/transport"
)

// minPasswordLength is the signup password floor.
const minPasswordLength = 8

// credentialsRequest is the body of signup and login.
type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// sessionResponse is returned by signup and login. The token is also set
// as the session cookie for browser clients.
type sessionResponse struct {
	Token string    `json:"token"`
	User  *api.User `json:"user"`
}

// handleSignup handles POST /v1/auth/signup. New accounts always get the
// user role; admins are created through seeding.
func (a *Adapter) handleSignup(w http.ResponseWriter, r *http.Request) {
	if a.tokens == nil {
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("", "account authentication is not available"),
			http.StatusNotImplemented,
		)
		return
	}

	req, ok := decodeJSON[credentialsRequest](a, w, r)
	if !ok {
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		transport.WriteAPIError(w, api.NewInvalidRequestError("email", "invalid email address"))
		return
	}
	if len(req.Password) < minPasswordLength {
		transport.WriteAPIError(w, api.NewInvalidRequestError("password", "password must be at least 8 characters"))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		transport.WriteAPIError(w, api.NewServerError("hashing password failed"))
		return
	}

	user := &api.User{
		ID:           api.NewUserID(),
		Email:        email,
		PasswordHash: hash,
		Role:         api.RoleUser,
		CreatedAt:    time.Now().UTC(),
	}

	if err := a.store.AddUser(r.Context(), user); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			transport.WriteAPIError(w, api.NewConflictError("an account with this email already exists"))
			return
		}
		transport.WriteAPIError(w, api.NewServerError("creating account failed"))
		return
	}

	debug.Log("auth", "account created", "user_id", user.ID)
	a.writeSession(w, user)
}

// handleLogin handles POST /v1/auth/login.
func (a *Adapter) handleLogin(w http.ResponseWriter, r *http.Request) {
	if a.tokens == nil {
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("", "account authentication is not available"),
			http.StatusNotImplemented,
		)
		return
	}

	req, ok := decodeJSON[credentialsRequest](a, w, r)
	if !ok {
		return
	}

	user, err := a.store.GetUserByEmail(r.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Same response as a bad password so the endpoint does not
			// leak which emails are registered.
			transport.WriteAPIError(w, api.NewUnauthenticatedError("invalid email or password"))
			return
		}
		transport.WriteAPIError(w, api.NewServerError("looking up account failed"))
		return
	}

	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		transport.WriteAPIError(w, api.NewUnauthenticatedError("invalid email or password"))
		return
	}

	debug.Log("auth", "login succeeded", "user_id", user.ID)
	a.writeSession(w, user)
}

// handleLogout handles POST /v1/auth/logout by expiring the session cookie.
func (a *Adapter) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     token.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// handleMe handles GET /v1/auth/me.
func (a *Adapter) handleMe(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())
	if id == nil {
		transport.WriteAPIError(w, api.NewUnauthenticatedError("authentication required"))
		return
	}

	// Account identities resolve to the stored user; API key and anonymous
	// identities are reported as-is.
	if user, err := a.store.GetUser(r.Context(), id.Subject); err == nil {
		writeJSON(w, http.StatusOK, user)
		return
	}

	writeJSON(w, http.StatusOK, &api.User{
		ID:    id.Subject,
		Email: id.Email,
		Role:  id.Role,
	})
}

// writeSession issues a token, sets the session cookie, and writes the
// session response.
func (a *Adapter) writeSession(w http.ResponseWriter, user *api.User) {
	signed, err := a.tokens.Issue(user)
	if err != nil {
		transport.WriteAPIError(w, api.NewServerError("issuing session token failed"))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     token.CookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(a.tokens.TTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, sessionResponse{Token: signed, User: user})
}
