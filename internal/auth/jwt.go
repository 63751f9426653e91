package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"live-trivia-service/internal/domain"
)

// Claims carries the connection identity. The subject is the user id.
type Claims struct {
	jwt.RegisteredClaims
	Role domain.Role `json:"role"`
	Name string      `json:"name,omitempty"`
}

// Authenticator verifies HS256 tokens presented on the websocket upgrade request.
type Authenticator struct {
	secret []byte
	issuer string
}

func NewAuthenticator(secret, issuer string) *Authenticator {
	return &Authenticator{secret: []byte(secret), issuer: issuer}
}

// Authenticate reads the token from the Authorization header or the token query parameter.
func (a *Authenticator) Authenticate(r *http.Request) (domain.Identity, error) {
	raw := bearerToken(r)
	if raw == "" {
		return domain.Identity{}, domain.ErrAuthenticationFailed
	}
	return a.Verify(raw)
}

func (a *Authenticator) Verify(raw string) (domain.Identity, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", domain.ErrAuthenticationFailed, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return domain.Identity{}, domain.ErrAuthenticationFailed
	}
	if claims.Role != domain.RoleHost && claims.Role != domain.RoleViewer {
		return domain.Identity{}, fmt.Errorf("%w: unknown role %q", domain.ErrAuthenticationFailed, claims.Role)
	}
	return domain.Identity{ID: claims.Subject, DisplayName: claims.Name, Role: claims.Role}, nil
}

// Issue signs a token for identity valid for ttl.
func (a *Authenticator) Issue(identity domain.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: identity.Role,
		Name: identity.DisplayName,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return r.URL.Query().Get("token")
}
