package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHashAndCompareCode(t *testing.T) {
	req := require.New(t)
	code := "4821"

	hash, err := HashCode(code)
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$argon2id$"))

	match, err := CompareCode(code, hash)
	req.NoError(err)
	req.True(match)

	match, err = CompareCode("0000", hash)
	req.NoError(err)
	req.False(match)
}

func TestGenerateCode_FourDigits(t *testing.T) {
	req := require.New(t)
	for i := 0; i < 50; i++ {
		code, err := GenerateCode()
		req.NoError(err)
		req.Len(code, 4)
		req.GreaterOrEqual(code, "1000")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	req := require.New(t)
	issuer := NewTokenIssuer("test-signing-key", time.Hour)

	token, err := issuer.GenerateToken("user-79001234567", "79001234567")
	req.NoError(err)

	claims, err := issuer.ValidateToken(token)
	req.NoError(err)
	req.Equal("user-79001234567", claims.UserID)
	req.Equal("79001234567", claims.Phone)
}

func TestTokenExpired(t *testing.T) {
	req := require.New(t)
	issuer := NewTokenIssuer("test-signing-key", -time.Minute)

	token, err := issuer.GenerateToken("user-79001234567", "79001234567")
	req.NoError(err)

	_, err = issuer.ValidateToken(token)
	req.Error(err)
}

func TestTokenWrongKey(t *testing.T) {
	req := require.New(t)
	issuer := NewTokenIssuer("test-signing-key", time.Hour)
	other := NewTokenIssuer("another-key", time.Hour)

	token, err := issuer.GenerateToken("user-79001234567", "79001234567")
	req.NoError(err)

	_, err = other.ValidateToken(token)
	req.Error(err)
}

func TestLoginValidation(t *testing.T) {
	req := require.New(t)
	tests := []struct {
		name    string
		req     LoginRequest
		wantErr bool
	}{
		{"Valid phone", LoginRequest{Phone: "79001234567"}, false},
		{"Valid with telegram chat", LoginRequest{Phone: "79001234567", TelegramChatID: "123456"}, false},
		{"Too short", LoginRequest{Phone: "123456789"}, true},
		{"Too long", LoginRequest{Phone: strings.Repeat("1", 16)}, true},
		{"Letters", LoginRequest{Phone: "79001abc567"}, true},
		{"Missing", LoginRequest{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLogin(tt.req)
			if tt.wantErr {
				req.Error(err)
			} else {
				req.NoError(err)
			}
		})
	}
}

func TestVerifyValidation(t *testing.T) {
	req := require.New(t)
	tests := []struct {
		name    string
		req     VerifyRequest
		wantErr bool
	}{
		{"Valid", VerifyRequest{Phone: "79001234567", Code: "1234"}, false},
		{"Code too short", VerifyRequest{Phone: "79001234567", Code: "123"}, true},
		{"Code letters", VerifyRequest{Phone: "79001234567", Code: "12ab"}, true},
		{"No code", VerifyRequest{Phone: "79001234567"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVerify(tt.req)
			if tt.wantErr {
				req.Error(err)
			} else {
				req.NoError(err)
			}
		})
	}
}
