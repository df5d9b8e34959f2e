package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345"

var alice = Principal{UserID: 7, Email: "alice@eventix.test", Role: RoleMember}

func TestPasswordHashing(t *testing.T) {
	hashed, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hashed)

	again, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, hashed, again, "bcrypt salts every hash")

	assert.True(t, CheckPassword(hashed, "correct horse"))
	assert.False(t, CheckPassword(hashed, "battery staple"))
	assert.False(t, CheckPassword(hashed, ""))
}

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole(RoleMember))
	assert.True(t, ValidRole(RoleAdmin))
	assert.False(t, ValidRole("user"))
	assert.False(t, ValidRole(""))
}

func TestGenerateTokens_RoundTrip(t *testing.T) {
	access, refresh, err := GenerateTokens(alice.UserID, alice.Email, alice.Role, testSecret, testSecret+"-refresh")
	require.NoError(t, err)
	require.NotEqual(t, access, refresh)

	claims, err := ValidateToken(access, testSecret)
	require.NoError(t, err)
	assert.Equal(t, alice, claims.Principal())
	assert.Equal(t, tokenTypeAccess, claims.TokenType)
	assert.Equal(t, "7", claims.Subject)
	assert.Equal(t, jwtIssuer, claims.Issuer)
	assert.Contains(t, claims.Audience, jwtAudience)
	assert.WithinDuration(t, time.Now().Add(AccessTokenTTL), claims.ExpiresAt.Time, 5*time.Second)

	claims, err = ValidateToken(refresh, testSecret+"-refresh")
	require.NoError(t, err)
	assert.Equal(t, tokenTypeRefresh, claims.TokenType)
	assert.WithinDuration(t, time.Now().Add(RefreshTokenTTL), claims.ExpiresAt.Time, 5*time.Second)
}

func TestGenerateTokens_EmptySecret(t *testing.T) {
	_, _, err := GenerateTokens(1, "a@b.c", RoleMember, "", testSecret)
	assert.ErrorIs(t, err, ErrEmptyJWTSecret)

	_, _, err = GenerateTokens(1, "a@b.c", RoleMember, testSecret, "")
	assert.ErrorIs(t, err, ErrEmptyJWTSecret)

	_, err = ValidateToken("anything", "")
	assert.ErrorIs(t, err, ErrEmptyJWTSecret)
}

func signWith(t *testing.T, method jwt.SigningMethod, key any, mutate func(*JWTClaims)) string {
	t.Helper()
	now := time.Now()
	claims := &JWTClaims{
		UserID:    alice.UserID,
		Email:     alice.Email,
		Role:      alice.Role,
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    jwtIssuer,
			Audience:  jwt.ClaimStrings{jwtAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
	}
	if mutate != nil {
		mutate(claims)
	}
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestValidateToken_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		token func(t *testing.T) string
		want  error
	}{
		{
			name:  "garbage",
			token: func(*testing.T) string { return "not.a.jwt" },
			want:  ErrInvalidToken,
		},
		{
			name: "wrong secret",
			token: func(t *testing.T) string {
				return signWith(t, jwt.SigningMethodHS256, []byte("other-secret"), nil)
			},
			want: ErrInvalidToken,
		},
		{
			name: "wrong algorithm",
			token: func(t *testing.T) string {
				return signWith(t, jwt.SigningMethodHS512, []byte(testSecret), nil)
			},
			want: ErrInvalidToken,
		},
		{
			name: "wrong issuer",
			token: func(t *testing.T) string {
				return signWith(t, jwt.SigningMethodHS256, []byte(testSecret), func(c *JWTClaims) { c.Issuer = "someone-else" })
			},
			want: ErrInvalidToken,
		},
		{
			name: "wrong audience",
			token: func(t *testing.T) string {
				return signWith(t, jwt.SigningMethodHS256, []byte(testSecret), func(c *JWTClaims) { c.Audience = jwt.ClaimStrings{"other"} })
			},
			want: ErrInvalidToken,
		},
		{
			name: "no expiry",
			token: func(t *testing.T) string {
				return signWith(t, jwt.SigningMethodHS256, []byte(testSecret), func(c *JWTClaims) { c.ExpiresAt = nil })
			},
			want: ErrInvalidToken,
		},
		{
			name: "expired",
			token: func(t *testing.T) string {
				return signWith(t, jwt.SigningMethodHS256, []byte(testSecret), func(c *JWTClaims) {
					c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
				})
			},
			want: ErrTokenExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ValidateToken(tt.token(t), testSecret)
			assert.Nil(t, claims)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRefreshAccessToken(t *testing.T) {
	const refreshSecret = "refresh-secret"
	_, refresh, err := GenerateTokens(alice.UserID, alice.Email, alice.Role, testSecret, refreshSecret)
	require.NoError(t, err)

	access, claims, err := RefreshAccessToken(refresh, refreshSecret, testSecret)
	require.NoError(t, err)
	assert.Equal(t, alice, claims.Principal())

	fresh, err := ValidateToken(access, testSecret)
	require.NoError(t, err)
	assert.Equal(t, tokenTypeAccess, fresh.TokenType)
	assert.Equal(t, alice, fresh.Principal())
}

func TestRefreshAccessToken_RejectsAccessToken(t *testing.T) {
	access, err := GenerateAccessToken(alice.UserID, alice.Email, alice.Role, testSecret)
	require.NoError(t, err)

	_, _, err = RefreshAccessToken(access, testSecret, testSecret)
	assert.ErrorIs(t, err, ErrInvalidTokenType)
}

func TestRefreshAccessToken_WrongSecret(t *testing.T) {
	_, refresh, err := GenerateTokens(1, "a@b.c", RoleAdmin, testSecret, "refresh-secret")
	require.NoError(t, err)

	_, _, err = RefreshAccessToken(refresh, "not-the-refresh-secret", testSecret)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
