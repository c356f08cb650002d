package config

import "log"

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}

// MustValid stops the process when the configuration cannot be used.
func MustValid(cfg Config) {
	if err := cfg.Validate(); err != nil {
		log.Fatalf("%v", err)
	}
}
