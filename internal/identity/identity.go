// Package identity assigns anonymous per-browser conversation identifiers.
//
// Chat clients that do not manage their own session id (plain curl, the
// embedded web page before script runs) still get isolated conversations:
// a cookie carries a random id that the chat handler uses as the fallback
// conversation key.
package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"regexp"
	"time"
)

const (
	// ConversationCookieName carries the anonymous conversation id.
	ConversationCookieName = "apontabot_conv_id"

	cookieMaxAge = 30 * 24 * time.Hour
)

type contextKey int

const conversationIDKey contextKey = iota

var conversationIDPattern = regexp.MustCompile(`^conv_[a-f0-9]{32}$`)

// ConversationIDFromContext extracts the anonymous conversation id set by
// Middleware, or "" when the middleware is not installed.
func ConversationIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(conversationIDKey).(string); ok {
		return v
	}
	return ""
}

func generateConversationID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate conversation id: %w", err)
	}
	return "conv_" + hex.EncodeToString(buf), nil
}

func isValidConversationID(id string) bool {
	return conversationIDPattern.MatchString(id)
}

// Middleware reads or creates the anonymous conversation cookie and puts
// the id on the request context. The cookie is refreshed on every request
// so active users never lose their conversation.
func Middleware(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(ConversationCookieName); err == nil && isValidConversationID(c.Value) {
				id = c.Value
			} else {
				generated, err := generateConversationID()
				if err != nil {
					// Without randomness there is no identity; the chat
					// still works, just without history.
					next.ServeHTTP(w, r)
					return
				}
				id = generated
			}

			http.SetCookie(w, &http.Cookie{
				Name:     ConversationCookieName,
				Value:    id,
				Path:     "/",
				MaxAge:   int(cookieMaxAge.Seconds()),
				Expires:  time.Now().Add(cookieMaxAge),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
				Secure:   secure,
			})

			ctx := context.WithValue(r.Context(), conversationIDKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
