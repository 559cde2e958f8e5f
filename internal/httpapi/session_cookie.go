package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	sessionCookieName = "exam_session"
	sessionIssuer     = "exam-flashcards"
	defaultCookieTTL  = 24 * time.Hour
)

// SessionCookies signs the session id carried in the browser cookie.
type SessionCookies struct {
	hmac   []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewSessionCookies signs with secret. An empty secret gets a random per-process key,
// so cookies stop verifying after a restart.
func NewSessionCookies(secret string, ttl time.Duration, secure bool) *SessionCookies {
	if secret == "" {
		secret = uuid.NewString()
	}
	if ttl <= 0 {
		ttl = defaultCookieTTL
	}
	return &SessionCookies{hmac: []byte(secret), ttl: ttl, secure: secure, now: time.Now}
}

func (c *SessionCookies) Issue(sessionID string) (string, error) {
	now := c.now()
	claims := jwt.RegisteredClaims{
		Subject:   sessionID,
		Issuer:    sessionIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.hmac)
}

func (c *SessionCookies) Parse(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return c.hmac, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return "", err
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", errors.New("invalid session token")
	}
	return claims.Subject, nil
}

type ctxKey string

const ctxKeySessionID ctxKey = "session_id"

func withSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, ctxKeySessionID, sessionID)
}

func sessionIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeySessionID).(string); ok {
		return v
	}
	return ""
}

// Middleware resolves the caller's session id, minting a new one when the cookie is
// missing or fails verification, and refreshes the cookie expiry.
func (c *SessionCookies) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := ""
		if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
			if sid, err := c.Parse(cookie.Value); err == nil {
				sessionID = sid
			}
		}
		if sessionID == "" {
			sessionID = uuid.NewString()
		}

		token, err := c.Issue(sessionID)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "could not issue session"})
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookieName,
			Value:    token,
			Path:     "/",
			HttpOnly: true,
			Secure:   c.secure,
			SameSite: http.SameSiteLaxMode,
			Expires:  c.now().Add(c.ttl),
		})

		next.ServeHTTP(w, r.WithContext(withSessionID(r.Context(), sessionID)))
	})
}
