package roster

import "fmt"

// Config selects the roster backend.
type Config struct {
	Backend       string `json:"backend"`
	RedisAddr     string `json:"redis_addr"`
	RedisPassword string `json:"redis_password"`
	RedisDB       int    `json:"redis_db"`
}

// SetDefaults applies the single-node defaults.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "memory"
	}
	if c.RedisAddr == "" {
		c.RedisAddr = "localhost:6379"
	}
}

// Validate checks the backend selection.
func (c Config) Validate() error {
	switch c.Backend {
	case "memory", "redis":
		return nil
	default:
		return fmt.Errorf("unknown roster backend %q", c.Backend)
	}
}
