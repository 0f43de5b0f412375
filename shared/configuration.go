package shared

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

const CONFIG_PREFIX = "KINDERGARTEN"

type AppConfig struct {
	PgUsername             string `split_words:"true" default:"postgres"`
	PgPassword             string `split_words:"true" default:"postgres"`
	PgContactPoint         string `split_words:"true" default:"127.0.0.1"`
	PgContactPort          string `split_words:"true" default:"5432"`
	PgDbName               string `split_words:"true" default:"kindergarten"`
	SqlMigrationsSourceDir string `split_words:"true" default:"./sql"`

	// What happens to a parent's children when the parent account is deleted.
	// One of "preserve", "orphans", "hard".
	CascadePolicy string `split_words:"true" default:"preserve"`

	LocalStoragePath string `split_words:"true" default:"./uploads"`

	TokenSecret        string `split_words:"true" default:"change-me"`
	TokenValidityHours int    `split_words:"true" default:"24"`

	StartupMigration bool `split_words:"true" default:"false"`
	ListenAddr       string `split_words:"true" default:"0.0.0.0:8080"`
}

func InitAppConfiguration() (config *AppConfig, err error) {
	config = &AppConfig{}

	if err := envconfig.Process(CONFIG_PREFIX, config); err != nil {
		return nil, fmt.Errorf("failed to parse env vars: %v", err)
	}

	return
}
