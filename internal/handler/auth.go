package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"
)

const (
	userCookie   = "token"
	sellerCookie = "sellerToken"

	sessionTTL = 7 * 24 * time.Hour
)

// Principal is the authenticated user identity, extracted from the session
// cookie and handed to handlers explicitly.
type Principal struct {
	UserID string
}

// Sessions issues and verifies HS256 session tokens for customers and the
// seller account. The seller is a single env-configured credential, not a
// database row.
type Sessions struct {
	secret        []byte
	sellerEmail   string
	secureCookies bool
}

// SessionsConfig configures token signing and the seller identity.
type SessionsConfig struct {
	Secret        string
	SellerEmail   string
	SecureCookies bool
}

// NewSessions creates a Sessions helper.
func NewSessions(cfg SessionsConfig) *Sessions {
	return &Sessions{
		secret:        []byte(cfg.Secret),
		sellerEmail:   cfg.SellerEmail,
		secureCookies: cfg.SecureCookies,
	}
}

// IssueUser writes a session cookie for the given user ID.
func (s *Sessions) IssueUser(w http.ResponseWriter, userID string) error {
	return s.issue(w, userCookie, userID)
}

// IssueSeller writes a seller session cookie.
func (s *Sessions) IssueSeller(w http.ResponseWriter) error {
	return s.issue(w, sellerCookie, s.sellerEmail)
}

func (s *Sessions) issue(w http.ResponseWriter, name, subject string) error {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(sessionTTL)),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return errors.Wrap(err, "sign session token")
	}

	http.SetCookie(w, s.cookie(name, signed, int(sessionTTL.Seconds())))
	return nil
}

// Clear expires the named session cookie.
func (s *Sessions) Clear(w http.ResponseWriter, name string) {
	http.SetCookie(w, s.cookie(name, "", -1))
}

func (s *Sessions) cookie(name, value string, maxAge int) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if s.secureCookies {
		sameSite = http.SameSiteNoneMode
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: sameSite,
	}
}

// subjectFrom parses and validates the named session cookie, returning its
// subject claim.
func (s *Sessions) subjectFrom(r *http.Request, name string) (string, error) {
	c, err := r.Cookie(name)
	if err != nil {
		return "", errors.New("missing session cookie")
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(c.Value, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", errors.Wrap(err, "parse session token")
	}
	if !token.Valid || claims.Subject == "" {
		return "", errors.New("invalid session token")
	}
	return claims.Subject, nil
}

// withUser authenticates the customer session and passes the principal into
// the wrapped handler explicitly, keeping identity out of ambient state.
func (h *Handler) withUser(next func(http.ResponseWriter, *http.Request, Principal)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := h.sessions.subjectFrom(r, userCookie)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"success": false,
				"message": "Not authenticated",
			})
			return
		}
		next(w, r, Principal{UserID: userID})
	}
}

// withSeller authenticates the seller session.
func (h *Handler) withSeller(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subject, err := h.sessions.subjectFrom(r, sellerCookie)
		if err != nil || subject != h.sessions.sellerEmail {
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"success": false,
				"message": "Not authenticated",
			})
			return
		}
		next(w, r)
	}
}
