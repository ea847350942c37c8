package config

import (
	"fmt"
	"strings"
)

// Validate performs business-rule validation on the loaded configuration.
// Load calls it automatically.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535 (got %d)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("server.shutdown_timeout must be >= 0 (got %s)", c.Server.ShutdownTimeout)
	}

	if err := c.Store.validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}

	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text (got %q)", c.Log.Format)
	}

	return nil
}

func (s *StoreConfig) validate() error {
	switch s.Driver {
	case DriverFile:
		if strings.TrimSpace(s.DataDir) == "" {
			return fmt.Errorf("data_dir is required for the %s driver", DriverFile)
		}
	case DriverSQLite:
		if strings.TrimSpace(s.SQLitePath) == "" {
			return fmt.Errorf("sqlite_path is required for the %s driver", DriverSQLite)
		}
	default:
		return fmt.Errorf("unknown driver %q", s.Driver)
	}
	return nil
}
