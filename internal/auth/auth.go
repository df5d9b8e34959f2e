package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	jwtIssuer   = "eventix-api"
	jwtAudience = "eventix-users"

	RoleMember = "member"
	RoleAdmin  = "admin"

	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour

	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

var (
	ErrTokenExpired     = errors.New("token expired")
	ErrInvalidToken     = errors.New("invalid token")
	ErrInvalidTokenType = errors.New("invalid token type")
	ErrEmptyJWTSecret   = errors.New("jwt secret cannot be empty")
)

// JWTClaims carries the requester identity. TokenType separates access tokens
// from refresh tokens signed with the same key.
type JWTClaims struct {
	UserID    int    `json:"user_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

func (c *JWTClaims) Principal() Principal {
	return Principal{UserID: c.UserID, Email: c.Email, Role: c.Role}
}

// ValidRole reports whether role is one the API grants.
func ValidRole(role string) bool {
	return role == RoleMember || role == RoleAdmin
}

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

func CheckPassword(hashedPassword, plainPassword string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(plainPassword)) == nil
}

func ttlFor(tokenType string) time.Duration {
	if tokenType == tokenTypeRefresh {
		return RefreshTokenTTL
	}
	return AccessTokenTTL
}

func sign(p Principal, tokenType, secret string, now time.Time) (string, error) {
	if secret == "" {
		return "", ErrEmptyJWTSecret
	}

	claims := &JWTClaims{
		UserID:    p.UserID,
		Email:     p.Email,
		Role:      p.Role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    jwtIssuer,
			Subject:   fmt.Sprint(p.UserID),
			Audience:  jwt.ClaimStrings{jwtAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttlFor(tokenType))),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func GenerateAccessToken(userID int, email, role, secret string) (string, error) {
	return sign(Principal{UserID: userID, Email: email, Role: role}, tokenTypeAccess, secret, time.Now())
}

func GenerateRefreshToken(userID int, email, role, secret string) (string, error) {
	return sign(Principal{UserID: userID, Email: email, Role: role}, tokenTypeRefresh, secret, time.Now())
}

// GenerateTokens issues an access and refresh pair sharing one issue time.
func GenerateTokens(userID int, email, role, accessSecret, refreshSecret string) (accessToken, refreshToken string, err error) {
	p := Principal{UserID: userID, Email: email, Role: role}
	now := time.Now()

	if accessToken, err = sign(p, tokenTypeAccess, accessSecret, now); err != nil {
		return "", "", err
	}
	if refreshToken, err = sign(p, tokenTypeRefresh, refreshSecret, now); err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

// ValidateToken verifies signature, issuer, audience and expiry. It does not
// check the token type; callers compare TokenType themselves.
func ValidateToken(tokenString, secret string) (*JWTClaims, error) {
	if secret == "" {
		return nil, ErrEmptyJWTSecret
	}

	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(jwtIssuer),
		jwt.WithAudience(jwtAudience),
		jwt.WithExpirationRequired(),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	case !token.Valid:
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// RefreshAccessToken exchanges a refresh token for a new access token with the
// same identity.
func RefreshAccessToken(refreshToken, refreshSecret, accessSecret string) (string, *JWTClaims, error) {
	claims, err := ValidateToken(refreshToken, refreshSecret)
	if err != nil {
		return "", nil, err
	}
	if claims.TokenType != tokenTypeRefresh {
		return "", nil, ErrInvalidTokenType
	}

	accessToken, err := sign(claims.Principal(), tokenTypeAccess, accessSecret, time.Now())
	if err != nil {
		return "", nil, err
	}
	return accessToken, claims, nil
}
