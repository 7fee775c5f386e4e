package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mio-messenger/auth"
	"mio-messenger/contract"
	"mio-messenger/domain"
	"mio-messenger/errors"
	"mio-messenger/repositories"
)

const (
	maxVerifyAttempts = 3
	codeTTL           = 10 * time.Minute
)

type AuthService struct {
	log            *slog.Logger
	codeRepository repositories.ICodeRepository
	userRepository repositories.IUserRepository
	userIndex      contract.IUserIndex
	notifier       contract.ICodeNotifier
	issuer         auth.TokenIssuer
}

func NewAuthService(log *slog.Logger, codes repositories.ICodeRepository,
	users repositories.IUserRepository, index contract.IUserIndex,
	notifier contract.ICodeNotifier, issuer auth.TokenIssuer) *AuthService {
	return &AuthService{
		log:            log,
		codeRepository: codes,
		userRepository: users,
		userIndex:      index,
		notifier:       notifier,
		issuer:         issuer,
	}
}

// RequestCode issues a fresh login code for a phone number. A second
// request overwrites the previous code, so only the latest one verifies.
func (s *AuthService) RequestCode(ctx context.Context, req auth.LoginRequest) error {
	// Validate before any cryptographic work.
	if err := auth.ValidateLogin(req); err != nil {
		return err
	}

	code, err := auth.GenerateCode()
	if err != nil {
		return fmt.Errorf("generating code: %w", err)
	}

	hash, err := auth.HashCode(code)
	if err != nil {
		return fmt.Errorf("hashing code: %w", err)
	}

	loginCode := repositories.LoginCode{
		Phone:          req.Phone,
		CodeHash:       hash,
		TelegramChatID: req.TelegramChatID,
		CreatedAt:      time.Now().UTC(),
		TTL:            codeTTL,
	}
	if err := s.codeRepository.StoreCode(loginCode); err != nil {
		return err
	}

	// The code must reach the user even when the notifier is down, so a
	// delivery failure falls back to the server log instead of failing
	// the request.
	if s.notifier != nil && req.TelegramChatID != "" {
		if err := s.notifier.SendCode(ctx, req.TelegramChatID, code); err != nil {
			s.log.Warn("Code delivery failed, code only in server log",
				"phone", req.Phone, "error", err)
			s.log.Info("Login code issued", "phone", req.Phone, "code", code)
		}
	} else {
		s.log.Info("Login code issued", "phone", req.Phone, "code", code)
	}
	return nil
}

// VerifyCode checks a submitted code against the pending one. Three
// failures burn the code; success consumes it, upserts the account and
// mints the session token.
func (s *AuthService) VerifyCode(_ context.Context, req auth.VerifyRequest) (contract.Token, domain.User, error) {
	if err := auth.ValidateVerify(req); err != nil {
		return "", domain.User{}, err
	}

	code, err := s.codeRepository.GetCode(req.Phone)
	if err != nil {
		return "", domain.User{}, err
	}

	if code.Attempts >= maxVerifyAttempts {
		if err := s.codeRepository.DeleteCode(req.Phone); err != nil {
			s.log.Warn("Deleting burnt code failed", "phone", req.Phone, "error", err)
		}
		return "", domain.User{}, errors.ErrTooManyAttempts
	}

	if time.Since(code.CreatedAt) > code.TTL {
		if err := s.codeRepository.DeleteCode(req.Phone); err != nil {
			s.log.Warn("Deleting expired code failed", "phone", req.Phone, "error", err)
		}
		return "", domain.User{}, errors.ErrCodeExpired
	}

	match, err := auth.CompareCode(req.Code, code.CodeHash)
	if err != nil {
		return "", domain.User{}, fmt.Errorf("comparing code: %w", err)
	}
	if !match {
		if err := s.codeRepository.IncrementAttempts(req.Phone); err != nil {
			s.log.Warn("Recording failed attempt", "phone", req.Phone, "error", err)
		}
		return "", domain.User{}, errors.ErrInvalidCode
	}

	if err := s.codeRepository.DeleteCode(req.Phone); err != nil {
		s.log.Warn("Deleting consumed code failed", "phone", req.Phone, "error", err)
	}

	user := domain.NewUser(req.Phone, code.TelegramChatID)
	if err := s.userRepository.SaveUser(user); err != nil {
		return "", domain.User{}, err
	}
	if s.userIndex != nil {
		if err := s.userIndex.IndexUser(user); err != nil {
			s.log.Warn("Indexing user failed", "user_id", user.ID, "error", err)
		}
	}

	token, err := s.issuer.GenerateToken(user.ID, user.Phone)
	if err != nil {
		return "", domain.User{}, errors.ErrTokenGeneration
	}
	return contract.Token(token), user, nil
}
