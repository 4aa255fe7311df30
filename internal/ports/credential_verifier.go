package ports

import (
	"context"

	"github.com/bnema/taskgate/internal/domain"
)

type CredentialVerifier interface {
	Verify(ctx context.Context, username, password string) (domain.Principal, error)
}
