package credentials

import (
	"context"
	"crypto/subtle"
	"sync"

	"github.com/bnema/taskgate/internal/domain"
	"github.com/bnema/taskgate/internal/ports"
	"github.com/spf13/viper"
)

// Verifier matches a username/password pair against the configured users.
// Configuration is resolved on first use so commands that never log in do not
// require it.
type Verifier struct {
	load func() ([]Expected, error)

	once  sync.Once
	users []Expected
	err   error
}

var _ ports.CredentialVerifier = (*Verifier)(nil)

func NewVerifier(users ...Expected) *Verifier {
	return &Verifier{load: func() ([]Expected, error) { return users, nil }}
}

func NewConfigVerifier(cfg *viper.Viper) *Verifier {
	return &Verifier{load: func() ([]Expected, error) { return LoadUsers(cfg) }}
}

func (v *Verifier) Verify(ctx context.Context, username, password string) (domain.Principal, error) {
	if err := ctx.Err(); err != nil {
		return domain.Principal{}, err
	}

	v.once.Do(func() {
		v.users, v.err = v.load()
	})
	if v.err != nil {
		return domain.Principal{}, v.err
	}

	// every entry is compared, no early exit
	matched := -1
	for i, user := range v.users {
		usernameMatch := subtle.ConstantTimeCompare([]byte(username), []byte(user.Username))
		passwordMatch := subtle.ConstantTimeCompare([]byte(password), []byte(user.Password))
		if usernameMatch&passwordMatch == 1 && matched < 0 {
			matched = i
		}
	}
	if matched < 0 {
		return domain.Principal{}, domain.ErrInvalidCredentials
	}

	user := v.users[matched]
	return domain.Principal{ID: user.UserID, DisplayName: user.Username}, nil
}
