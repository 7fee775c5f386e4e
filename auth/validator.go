package auth

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"mio-messenger/errors"
)

var validate = validator.New()

// LoginRequest asks for a verification code. The phone is the sole external
// identity: digits only, 10 to 15 of them.
type LoginRequest struct {
	Phone          string `json:"phone" validate:"required,numeric,min=10,max=15"`
	TelegramChatID string `json:"telegramChatId" validate:"omitempty,numeric"`
}

type VerifyRequest struct {
	Phone string `json:"phone" validate:"required,numeric,min=10,max=15"`
	Code  string `json:"code" validate:"required,numeric,len=4"`
}

func ValidateLogin(req LoginRequest) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidPhone, err)
	}
	return nil
}

func ValidateVerify(req VerifyRequest) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidCode, err)
	}
	return nil
}
