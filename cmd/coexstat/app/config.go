package app

import (
	"errors"
	"flag"
)

type Config struct {
	DBPath    string
	SessionID int64
}

func NewConfig() *Config {
	return &Config{}
}

// NewConfigFromCLI parses flags. A session ID of 0 lists the recorded
// sessions instead of summarizing one.
func NewConfigFromCLI() (*Config, error) {
	c := NewConfig()

	flag.StringVar(&c.DBPath, "db", "", "Path to the database file")
	flag.Int64Var(&c.SessionID, "s", 0, "Session ID to summarize (0 lists sessions)")
	flag.Parse()

	if c.DBPath == "" {
		flag.Usage()
		return nil, errors.New("db path is required")
	}
	return c, nil
}
