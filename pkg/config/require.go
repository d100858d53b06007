package config

import "fmt"

// Validate reports the first missing setting the server cannot start without.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("missing required env %s", "DATABASE_URL")
	}
	if len(c.JWTAccessSecret) == 0 {
		return fmt.Errorf("missing required env %s", "JWT_SECRET")
	}
	switch c.DatabaseDriver {
	case "postgres", "pq", "sqlite":
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	return nil
}
