//go:generate go run go.uber.org/mock/mockgen -source=auth.go -destination=../mocks/mock_auth_service.go -package=mocks
package contract

import (
	"context"

	"mio-messenger/auth"
	"mio-messenger/domain"
)

type IAuthService interface {
	RequestCode(ctx context.Context, req auth.LoginRequest) error
	VerifyCode(ctx context.Context, req auth.VerifyRequest) (Token, domain.User, error)
}

// ICodeNotifier delivers a plain login code out of band. Delivery failure
// must not block the login flow.
type ICodeNotifier interface {
	SendCode(ctx context.Context, telegramChatID, code string) error
}

// IUserIndex registers verified users for phone lookup.
type IUserIndex interface {
	IndexUser(user domain.User) error
}

type Token string

func (t Token) String() string {
	return string(t)
}
