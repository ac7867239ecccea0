package buyer

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/noah-isme/backend-cart/internal/common"
)

// AnonHeader carries the guest session identifier on requests and responses.
const AnonHeader = "X-Anon-Id"

const companyClaim = "companyId"

// Middleware resolves the buyer identity for each request. Authenticated
// buyers present a bearer token issued by the identity service; the token is
// only validated here, never minted. Guests are keyed by an anon header which
// is generated on first contact.
type Middleware struct {
	Secret    []byte
	Issuer    string
	ClockSkew time.Duration
	Now       func() time.Time
}

// Resolve attaches the buyer identity to the request context. An invalid
// bearer token is rejected so a broken session can never write into a guest
// cart by accident.
func (m Middleware) Resolve(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearer(r)
		if token != "" {
			id, err := m.parseToken(token)
			if err != nil {
				common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid token", nil)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
			return
		}

		anonID := strings.TrimSpace(r.Header.Get(AnonHeader))
		if anonID == "" {
			anonID = uuid.NewString()
		}
		w.Header().Set(AnonHeader, anonID)
		id := Identity{AnonID: anonID}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

func (m Middleware) parseToken(token string) (Identity, error) {
	options := []jwt.ParseOption{
		jwt.WithKey(jwa.HS256, m.Secret),
		jwt.WithValidate(true),
		jwt.WithClock(jwt.ClockFunc(m.now)),
	}
	if m.ClockSkew > 0 {
		options = append(options, jwt.WithAcceptableSkew(m.ClockSkew))
	}
	if m.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.Issuer))
	}
	tok, err := jwt.ParseString(token, options...)
	if err != nil {
		return Identity{}, err
	}
	id := Identity{UserID: tok.Subject()}
	if raw, ok := tok.Get(companyClaim); ok {
		if company, ok := raw.(string); ok {
			id.CompanyID = strings.TrimSpace(company)
		}
	}
	return id, nil
}

func (m Middleware) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

func extractBearer(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
