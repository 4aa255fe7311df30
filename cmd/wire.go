package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bnema/taskgate/internal/adapters/credentials"
	taskrender "github.com/bnema/taskgate/internal/adapters/render/tasks"
	"github.com/bnema/taskgate/internal/adapters/repo/memory"
	tomlrepo "github.com/bnema/taskgate/internal/adapters/repo/toml"
	"github.com/bnema/taskgate/internal/application"
	"github.com/bnema/taskgate/internal/domain"
	"github.com/bnema/taskgate/internal/ports"
	"github.com/spf13/viper"
)

const (
	storeBackendKey = "store.backend"
	backendMemory   = "memory"
	backendTOML     = "toml"

	configDir  = ".taskgate"
	configName = "config"
	configType = "toml"
)

type rootOptions struct {
	configPath string
	debug      bool
}

type app struct {
	session          *application.Session
	tasks            *application.TaskService
	auth             *application.AuthService
	taskRenderer     func([]domain.Task, taskrender.RenderOptions) (string, error)
	maxLoginAttempts int
	logger           *slog.Logger
}

func (a *app) wire(opts *rootOptions, logOut io.Writer) error {
	logger := newLogger(logOut, opts.debug)

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}

	repo, err := newTaskRepository(cfg)
	if err != nil {
		return fmt.Errorf("wire task repository: %w", err)
	}

	clock := ports.SystemClock{}

	a.logger = logger
	a.session = application.NewSession(clock, logger)
	a.tasks = application.NewTaskService(repo, clock, logger)
	a.auth = application.NewAuthService(credentials.NewConfigVerifier(cfg), logger)
	a.taskRenderer = taskrender.Render
	a.maxLoginAttempts = cfg.GetInt(credentials.MaxAttemptsKey)

	return nil
}

func loadConfig(path string) (*viper.Viper, error) {
	cfg := viper.New()
	cfg.SetConfigType(configType)

	if path != "" {
		cfg.SetConfigFile(path)
	} else {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		cfg.SetConfigName(configName)
		cfg.AddConfigPath(filepath.Join(homeDir, configDir))
	}

	cfg.SetDefault(storeBackendKey, backendMemory)
	cfg.SetDefault(credentials.MaxAttemptsKey, application.DefaultMaxLoginAttempts)

	for key, env := range map[string]string{
		storeBackendKey:        "TASKGATE_STORE_BACKEND",
		tomlrepo.TasksPathKey:  "TASKGATE_TASKS_PATH",
		credentials.EnvFileKey: "TASKGATE_ENV_FILE",
	} {
		if err := cfg.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if err := cfg.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("%w: read config file: %w", domain.ErrConfiguration, err)
		}
	}

	return cfg, nil
}

func newTaskRepository(cfg *viper.Viper) (ports.TaskRepository, error) {
	switch backend := cfg.GetString(storeBackendKey); backend {
	case backendMemory, "":
		return memory.NewRepository(), nil
	case backendTOML:
		return tomlrepo.NewRepository(cfg)
	default:
		return nil, fmt.Errorf("%w: unsupported store backend %q", domain.ErrConfiguration, backend)
	}
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
