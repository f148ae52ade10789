package launcher

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/packmule-mc/packmule/internal/faults"
)

// TokenExpiry reads the exp claim of a session token without verifying its
// signature. The engine only decides whether to refresh before hand-off;
// verification is the auth provider's business.
func TokenExpiry(token string) (time.Time, error) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, faults.New(faults.Parse, "inspecting session token", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, faults.Newf(faults.Parse, "inspecting session token", "token carries no expiry claim")
	}
	return claims.ExpiresAt.Time, nil
}

// NeedsRefresh reports whether the token expires within margin. Tokens that
// can't be read count as expired.
func NeedsRefresh(token string, margin time.Duration) bool {
	expiry, err := TokenExpiry(token)
	if err != nil {
		return true
	}
	return time.Until(expiry) < margin
}
