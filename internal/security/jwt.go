package security

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired or not yet valid")
	ErrInvalidSubject = errors.New("invalid token subject")
)

// TokenVerifier проверяет access-токены, выпущенные auth-сервисом
// (RS256). Выпуск токенов — не наша забота, только проверка.
type TokenVerifier struct {
	public    *rsa.PublicKey
	issuer    string
	clockSkew time.Duration
}

func NewTokenVerifier(public *rsa.PublicKey, issuer string, clockSkew time.Duration) *TokenVerifier {
	return &TokenVerifier{public: public, issuer: issuer, clockSkew: clockSkew}
}

type AccessClaims struct {
	jwt.StandardClaims
}

// VerifyAccessToken разбирает токен и возвращает userID из sub.
// Временные claims проверяем сами, чтобы учесть clockSkew.
func (v *TokenVerifier) VerifyAccessToken(tokenStr string) (int64, error) {
	claims := &AccessClaims{}
	parser := jwt.Parser{SkipClaimsValidation: true}
	token, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok || t.Method.Alg() != jwt.SigningMethodRS256.Alg() {
			return nil, ErrInvalidToken
		}
		return v.public, nil
	})
	if err != nil {
		return 0, err
	}
	if !token.Valid {
		return 0, ErrInvalidToken
	}

	if v.issuer != "" && !claims.VerifyIssuer(v.issuer, true) {
		return 0, ErrInvalidToken
	}

	now := time.Now()
	nbf := time.Unix(claims.NotBefore, 0).Add(-v.clockSkew)
	exp := time.Unix(claims.ExpiresAt, 0).Add(v.clockSkew)
	if now.Before(nbf) || now.After(exp) {
		return 0, ErrTokenExpired
	}

	if claims.Subject == "" {
		return 0, ErrInvalidSubject
	}
	var id int64
	if _, err := fmt.Sscan(claims.Subject, &id); err != nil || id <= 0 {
		return 0, ErrInvalidSubject
	}
	return id, nil
}

// LoadRSAPublicKeyFromPEM читает публичный ключ проверки подписи.
func LoadRSAPublicKeyFromPEM(pemBytes []byte) (*rsa.PublicKey, error) {
	return jwt.ParseRSAPublicKeyFromPEM(pemBytes)
}
