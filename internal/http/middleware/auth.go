package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/surehealth/occuhealth-ai-platform/internal/tenancy"
)

// TenantClaims are the JWT claims issued by the auth layer. The organization
// fields become the request's TrustedContext; they are the only path through
// which security scoping enters a query.
type TenantClaims struct {
	jwt.RegisteredClaims
	OrgID        string   `json:"org_id"`
	ClientOrgIDs []string `json:"client_org_ids"`
	Role         string   `json:"role"`
}

// TenantJWT enforces an HMAC-signed JWT on API endpoints and attaches the
// caller's trusted context to the request.
func TenantJWT(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				http.Error(w, "api auth disabled", http.StatusUnauthorized)
				return
			}
			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}
			tokenString := strings.TrimPrefix(auth, "Bearer ")
			claims := TenantClaims{}
			token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			if strings.TrimSpace(claims.OrgID) == "" {
				http.Error(w, "token missing organization", http.StatusForbidden)
				return
			}
			ctx := tenancy.WithCaller(r.Context(), tenancy.TrustedContext{
				UserID:       claims.Subject,
				OrgID:        claims.OrgID,
				ClientOrgIDs: claims.ClientOrgIDs,
				Role:         claims.Role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
