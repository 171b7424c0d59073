package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	AccessTokenTTL  = 24 * time.Hour
	RefreshTokenTTL = 7 * 24 * time.Hour

	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// Claims mirrors cafe1231's JWTClaims shape, trimmed to what
// IdleDuelist's transport actually carries: a user_id and the token's
// own type/expiry via jwt.RegisteredClaims.
type Claims struct {
	UserID    string `json:"user_id"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// Keyring issues and validates HMAC-signed bearer tokens. Validate
// accepts a token signed by any key currently or previously in the
// ring, so a secret rotation never invalidates tokens issued moments
// before the rotation — the key-ring rotation-safety spec §4.3 asks for.
type Keyring struct {
	signingKey []byte   // current key, used for all new tokens
	validKeys  [][]byte // current + retired keys, used for validation only
}

// NewKeyring builds a keyring from the active signing key followed by
// any retired keys still accepted for validation.
func NewKeyring(signingKey []byte, retiredKeys ...[]byte) *Keyring {
	valid := append([][]byte{signingKey}, retiredKeys...)
	return &Keyring{signingKey: signingKey, validKeys: valid}
}

func (k *Keyring) issue(userID, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:    userID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(k.signingKey)
}

// IssueAccessToken issues a 24h access token for userID.
func (k *Keyring) IssueAccessToken(userID string) (string, error) {
	return k.issue(userID, tokenTypeAccess, AccessTokenTTL)
}

// IssueRefreshToken issues a 7d refresh token for userID.
func (k *Keyring) IssueRefreshToken(userID string) (string, error) {
	return k.issue(userID, tokenTypeRefresh, RefreshTokenTTL)
}

var (
	ErrInvalidToken    = errors.New("invalid token")
	ErrWrongTokenType  = errors.New("wrong token type")
)

func (k *Keyring) parse(tokenString string) (*Claims, error) {
	var lastErr error
	for _, key := range k.validKeys {
		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken
			}
			return key, nil
		})
		if err == nil && token.Valid {
			return claims, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = ErrInvalidToken
	}
	return nil, lastErr
}

// ValidateAccessToken parses tokenString and requires it to be an
// unexpired access token.
func (k *Keyring) ValidateAccessToken(tokenString string) (*Claims, error) {
	claims, err := k.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenTypeAccess {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

// ValidateRefreshToken parses tokenString and requires it to be an
// unexpired refresh token.
func (k *Keyring) ValidateRefreshToken(tokenString string) (*Claims, error) {
	claims, err := k.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenTypeRefresh {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}
