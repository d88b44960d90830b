package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the set of JWT fields the gateway trusts from a voice-cloud
// bearer token. Issuance belongs to the cloud's own OAuth2 endpoint;
// the gateway only ever validates a token it did not mint.
type Claims struct {
	jwt.RegisteredClaims
}

// ParseToken validates a JWT bearer token's signature and expiry against
// secret and returns its claims. Any failure — bad signature, expired
// token, wrong algorithm, missing subject — collapses into the same
// ErrTokenInvalid bucket.
func ParseToken(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}

	return claims, nil
}
