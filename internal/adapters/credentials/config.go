package credentials

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/bnema/taskgate/internal/domain"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	UserIDKey      = "auth.user_id"
	UsernameKey    = "auth.username"
	PasswordKey    = "auth.password"
	EnvFileKey     = "auth.env_file"
	MaxAttemptsKey = "auth.max_attempts"
	UsersKey       = "auth.users"

	defaultEnvFile = ".env"
)

var envBindings = []struct {
	key string
	env string
}{
	{key: UserIDKey, env: "AUTH_USER_ID"},
	{key: UsernameKey, env: "AUTH_USERNAME"},
	{key: PasswordKey, env: "AUTH_PASSWORD"},
}

// Expected is one credential triple a login may match.
type Expected struct {
	UserID   domain.Identity `mapstructure:"user_id"`
	Username string          `mapstructure:"username"`
	Password string          `mapstructure:"password"`
}

func (e Expected) missing() []string {
	var missing []string
	if e.UserID == "" {
		missing = append(missing, "AUTH_USER_ID")
	}
	if e.Username == "" {
		missing = append(missing, "AUTH_USERNAME")
	}
	if e.Password == "" {
		missing = append(missing, "AUTH_PASSWORD")
	}
	return missing
}

// LoadUsers resolves every credential triple a login may match. The single
// AUTH_* triple (process env, then the optional .env file, then the [auth]
// table) comes first, followed by the [[auth.users]] entries. A partially
// set triple is an error, as is an empty result.
func LoadUsers(cfg *viper.Viper) ([]Expected, error) {
	if cfg == nil {
		cfg = viper.New()
	}
	cfg.SetDefault(EnvFileKey, defaultEnvFile)

	if err := loadEnvFile(cfg.GetString(EnvFileKey)); err != nil {
		return nil, err
	}

	for _, binding := range envBindings {
		if err := cfg.BindEnv(binding.key, binding.env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", binding.env, err)
		}
	}

	primary := Expected{
		UserID:   domain.Identity(strings.TrimSpace(cfg.GetString(UserIDKey))),
		Username: strings.TrimSpace(cfg.GetString(UsernameKey)),
		Password: cfg.GetString(PasswordKey),
	}

	var listed []Expected
	if err := cfg.UnmarshalKey(UsersKey, &listed); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", domain.ErrConfiguration, UsersKey, err)
	}

	var users []Expected
	missing := primary.missing()
	switch {
	case len(missing) == 0:
		users = append(users, primary)
	case len(missing) < 3 || len(listed) == 0:
		return nil, fmt.Errorf("%w: missing %s", domain.ErrConfiguration, strings.Join(missing, ", "))
	}

	seen := make(map[string]struct{}, len(listed)+1)
	if len(users) > 0 {
		seen[primary.Username] = struct{}{}
	}
	for i, user := range listed {
		user.UserID = domain.Identity(strings.TrimSpace(string(user.UserID)))
		user.Username = strings.TrimSpace(user.Username)
		if missing := user.missing(); len(missing) > 0 {
			return nil, fmt.Errorf("%w: %s[%d]: missing %s", domain.ErrConfiguration, UsersKey, i, strings.Join(missing, ", "))
		}
		if _, ok := seen[user.Username]; ok {
			return nil, fmt.Errorf("%w: duplicate username %q", domain.ErrConfiguration, user.Username)
		}
		seen[user.Username] = struct{}{}
		users = append(users, user)
	}

	return users, nil
}

// loadEnvFile never overrides variables already present in the environment.
func loadEnvFile(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}

	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	return fmt.Errorf("%w: load env file %s: %w", domain.ErrConfiguration, path, err)
}
