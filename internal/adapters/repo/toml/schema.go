package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version int          `toml:"version"`
	LastSeq int          `toml:"last_seq"`
	Tasks   []taskSchema `toml:"tasks"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported tasks schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type taskSchema struct {
	ID          string   `toml:"id"`
	OwnerID     string   `toml:"owner_id"`
	Title       string   `toml:"title"`
	Description string   `toml:"description,omitempty"`
	Status      string   `toml:"status"`
	Priority    string   `toml:"priority"`
	Tags        []string `toml:"tags"`
	CreatedAt   string   `toml:"created_at,omitempty"`
	UpdatedAt   string   `toml:"updated_at,omitempty"`
}
