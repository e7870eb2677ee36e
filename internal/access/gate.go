// Package access implements the shared-secret gate in front of the trip log:
// a club password for contributors, an admin password for edit and delete,
// and a signed session cookie that remembers both for the browser session.
//
// This is a convenience gate for a small club site, not authentication.
package access

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"

	"github.com/gorilla/securecookie"

	"github.com/teeck111/bmc/internal/domain"
)

// CookieName is the session cookie.
const CookieName = "bmc_session"

// ClubPasswordHeader lets API clients pass the club password per request.
const ClubPasswordHeader = "X-Club-Password"

// Gate compares submitted passwords with the configured secrets.
type Gate struct {
	ClubPassword  string
	AdminPassword string
}

// CheckClub reports whether pw matches the club password. An unset password
// never matches.
func (g Gate) CheckClub(pw string) bool {
	return equal(g.ClubPassword, pw)
}

// CheckAdmin reports whether pw matches the admin password.
func (g Gate) CheckAdmin(pw string) bool {
	return equal(g.AdminPassword, pw)
}

func equal(secret, pw string) bool {
	if secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(pw)) == 1
}

// SessionCodec stores a domain.Session in a signed, encrypted cookie.
type SessionCodec struct {
	sc     *securecookie.SecureCookie
	secure bool
}

// NewSessionCodec derives the cookie keys from hashKey (32 or 64 bytes) and
// the optional blockKey (16, 24 or 32 bytes; nil disables encryption).
func NewSessionCodec(hashKey, blockKey []byte, secure bool) *SessionCodec {
	sc := securecookie.New(hashKey, blockKey)
	sc.SetSerializer(securecookie.JSONEncoder{})
	// 0 keeps the cookie for the browser session only.
	sc.MaxAge(0)
	// An editing trip with many photos can exceed the default 4 KiB cap.
	sc.MaxLength(0)
	return &SessionCodec{sc: sc, secure: secure}
}

// Read decodes the session from r. A missing or tampered cookie yields an
// empty session.
func (c *SessionCodec) Read(r *http.Request) domain.Session {
	var s domain.Session
	ck, err := r.Cookie(CookieName)
	if err != nil {
		return s
	}
	if err := c.sc.Decode(CookieName, ck.Value, &s); err != nil {
		return domain.Session{}
	}
	return s
}

// Write replaces the session cookie.
func (c *SessionCodec) Write(w http.ResponseWriter, s domain.Session) error {
	v, err := c.sc.Encode(CookieName, s)
	if err != nil {
		return fmt.Errorf("access.SessionCodec.Write: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    v,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear removes the session cookie.
func (c *SessionCodec) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

type ctxKey struct{}

// WithSession stores s in ctx.
func WithSession(ctx context.Context, s domain.Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// SessionFrom returns the session LoadSession put in ctx, or an empty one.
func SessionFrom(ctx context.Context) domain.Session {
	s, _ := ctx.Value(ctxKey{}).(domain.Session)
	return s
}

// LoadSession decodes the session cookie once per request.
func (c *SessionCodec) LoadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), c.Read(r))))
	})
}

// RequireClub admits requests that carry the club password header or come
// from an authenticated session. Everything else gets 401.
func RequireClub(g Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if pw := r.Header.Get(ClubPasswordHeader); pw != "" {
				if g.CheckClub(pw) {
					next.ServeHTTP(w, r)
					return
				}
			} else if SessionFrom(r.Context()).Authenticated {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Invalid club password"}` + "\n"))
		})
	}
}
