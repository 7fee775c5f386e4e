package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"mio-messenger/auth"
	"mio-messenger/errors"
	"mio-messenger/mocks"
	"mio-messenger/repositories"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestAuthService_RequestCode(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	codes := mocks.NewMockICodeRepository(ctrl)
	users := mocks.NewMockIUserRepository(ctrl)
	index := mocks.NewMockIUserIndex(ctrl)
	notifier := mocks.NewMockICodeNotifier(ctrl)
	issuer := auth.NewTokenIssuer("test-signing-key", time.Hour)
	svc := NewAuthService(newTestLogger(), codes, users, index, notifier, issuer)

	t.Run("should store a hashed code and notify when input is valid", func(t *testing.T) {
		req := require.New(t)

		var stored repositories.LoginCode
		codes.EXPECT().
			StoreCode(gomock.Any()).
			DoAndReturn(func(code repositories.LoginCode) error {
				stored = code
				return nil
			}).
			Times(1)
		notifier.EXPECT().
			SendCode(gomock.Any(), "12345678", gomock.Any()).
			Return(nil).
			Times(1)

		err := svc.RequestCode(context.Background(), auth.LoginRequest{
			Phone:          "33612345678",
			TelegramChatID: "12345678",
		})

		req.NoError(err)
		req.Equal("33612345678", stored.Phone)
		req.NotEmpty(stored.CodeHash)
		req.NotContains(stored.CodeHash, stored.Phone)
		req.Equal(codeTTL, stored.TTL)
	})

	t.Run("should reject an invalid phone without touching storage", func(t *testing.T) {
		req := require.New(t)

		codes.EXPECT().StoreCode(gomock.Any()).Times(0)

		err := svc.RequestCode(context.Background(), auth.LoginRequest{Phone: "not-a-phone"})

		req.ErrorIs(err, errors.ErrInvalidPhone)
	})

	t.Run("should succeed even when delivery fails", func(t *testing.T) {
		req := require.New(t)

		codes.EXPECT().StoreCode(gomock.Any()).Return(nil).Times(1)
		notifier.EXPECT().
			SendCode(gomock.Any(), "12345678", gomock.Any()).
			Return(errors.ErrTransportFailure).
			Times(1)

		err := svc.RequestCode(context.Background(), auth.LoginRequest{
			Phone:          "33612345678",
			TelegramChatID: "12345678",
		})

		req.NoError(err)
	})
}

func TestAuthService_VerifyCode(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	codes := mocks.NewMockICodeRepository(ctrl)
	users := mocks.NewMockIUserRepository(ctrl)
	index := mocks.NewMockIUserIndex(ctrl)
	notifier := mocks.NewMockICodeNotifier(ctrl)
	issuer := auth.NewTokenIssuer("test-signing-key", time.Hour)
	svc := NewAuthService(newTestLogger(), codes, users, index, notifier, issuer)

	phone := "33612345678"
	plainCode := "4321"
	hash, err := auth.HashCode(plainCode)
	require.NoError(t, err)

	pendingCode := func() repositories.LoginCode {
		return repositories.LoginCode{
			Phone:          phone,
			CodeHash:       hash,
			TelegramChatID: "12345678",
			CreatedAt:      time.Now().UTC(),
			TTL:            codeTTL,
		}
	}

	t.Run("should mint a token and upsert the account on the right code", func(t *testing.T) {
		req := require.New(t)

		codes.EXPECT().GetCode(phone).Return(pendingCode(), nil).Times(1)
		codes.EXPECT().DeleteCode(phone).Return(nil).Times(1)
		users.EXPECT().SaveUser(gomock.Any()).Return(nil).Times(1)
		index.EXPECT().IndexUser(gomock.Any()).Return(nil).Times(1)

		token, user, err := svc.VerifyCode(context.Background(), auth.VerifyRequest{
			Phone: phone,
			Code:  plainCode,
		})

		req.NoError(err)
		req.NotEmpty(token)
		req.Equal("user-"+phone, user.ID)
		req.Equal("12345678", user.TelegramChatID)

		claims, err := issuer.ValidateToken(token.String())
		req.NoError(err)
		req.Equal(user.ID, claims.UserID)
	})

	t.Run("should count a wrong code as a failed attempt", func(t *testing.T) {
		req := require.New(t)

		codes.EXPECT().GetCode(phone).Return(pendingCode(), nil).Times(1)
		codes.EXPECT().IncrementAttempts(phone).Return(nil).Times(1)
		users.EXPECT().SaveUser(gomock.Any()).Times(0)

		_, _, err := svc.VerifyCode(context.Background(), auth.VerifyRequest{
			Phone: phone,
			Code:  "0000",
		})

		req.ErrorIs(err, errors.ErrInvalidCode)
	})

	t.Run("should burn the code after three failed attempts", func(t *testing.T) {
		req := require.New(t)

		burnt := pendingCode()
		burnt.Attempts = maxVerifyAttempts
		codes.EXPECT().GetCode(phone).Return(burnt, nil).Times(1)
		codes.EXPECT().DeleteCode(phone).Return(nil).Times(1)

		_, _, err := svc.VerifyCode(context.Background(), auth.VerifyRequest{
			Phone: phone,
			Code:  plainCode,
		})

		req.ErrorIs(err, errors.ErrTooManyAttempts)
	})

	t.Run("should reject an expired code even with the right value", func(t *testing.T) {
		req := require.New(t)

		expired := pendingCode()
		expired.CreatedAt = time.Now().UTC().Add(-11 * time.Minute)
		codes.EXPECT().GetCode(phone).Return(expired, nil).Times(1)
		codes.EXPECT().DeleteCode(phone).Return(nil).Times(1)

		_, _, err := svc.VerifyCode(context.Background(), auth.VerifyRequest{
			Phone: phone,
			Code:  plainCode,
		})

		req.ErrorIs(err, errors.ErrCodeExpired)
	})

	t.Run("should fail when no code is pending for the phone", func(t *testing.T) {
		req := require.New(t)

		codes.EXPECT().
			GetCode(phone).
			Return(repositories.LoginCode{}, errors.ErrCodeNotFound).
			Times(1)

		_, _, err := svc.VerifyCode(context.Background(), auth.VerifyRequest{
			Phone: phone,
			Code:  plainCode,
		})

		req.ErrorIs(err, errors.ErrCodeNotFound)
	})
}
