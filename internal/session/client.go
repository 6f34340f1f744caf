package session

import (
	"context"

	"github.com/rishi-singh26/tempbox/internal/mailtm"
	"github.com/rishi-singh26/tempbox/internal/model"
)

// RemoteClient is the subset of the mail provider API the controller
// depends on. *mailtm.Client satisfies it; tests substitute fakes.
type RemoteClient interface {
	ListDomains(ctx context.Context, page int) ([]mailtm.Domain, error)

	CreateAccount(ctx context.Context, address, password string) (mailtm.Account, error)
	Authenticate(ctx context.Context, address, password string) (mailtm.Token, error)
	GetAccount(ctx context.Context, id, token string) (mailtm.Account, error)
	DeleteAccount(ctx context.Context, id, token string) error

	ListMessages(ctx context.Context, token string, page int) ([]model.Message, error)
	GetMessage(ctx context.Context, id, token string) (model.Message, error)
	SetMessageSeen(ctx context.Context, id, token string, seen bool) error
	DeleteMessage(ctx context.Context, id, token string) error
	GetMessageSource(ctx context.Context, id, token string) ([]byte, error)
}

var _ RemoteClient = (*mailtm.Client)(nil)
