package config

import (
	"strconv"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"

	"keyedstore/internal/fingerprint"
)

var logger = loggo.GetLogger("keyedstore.config")

// Recognised option names.
const (
	SeparatorKey = "separator"
	DigestKey    = "digest"
	LoggingKey   = "logging"
)

// Config holds the store configuration.
type Config struct {
	// Separator joins sequence elements in structural fingerprints.
	Separator string
	// Digest stores structural keys as CIDs of their fingerprint.
	Digest bool
	// Logging is a loggo specification, e.g. "<root>=DEBUG;keyedstore.storage=TRACE".
	Logging string
}

// Default returns the configuration used when nothing is specified.
func Default() Config {
	return Config{
		Separator: fingerprint.DefaultSeparator,
	}
}

// Parse parses a comma-separated list of options in the format:
// "separator=|,digest=true,logging=<root>=DEBUG"
// Options not mentioned keep their default. A separator containing a comma
// cannot be expressed.
func Parse(s string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(s) == "" {
		return cfg, nil
	}

	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return Config{}, errors.NotValidf("option %q (expected key=value)", part)
		}

		key := strings.TrimSpace(kv[0])
		value := strings.TrimSpace(kv[1])

		switch key {
		case SeparatorKey:
			if value == "" {
				return Config{}, errors.NotValidf("empty separator")
			}
			cfg.Separator = value
		case DigestKey:
			digest, err := strconv.ParseBool(value)
			if err != nil {
				return Config{}, errors.NotValidf("digest value %q", value)
			}
			cfg.Digest = digest
		case LoggingKey:
			cfg.Logging = value
		default:
			return Config{}, errors.NotValidf("option %q", key)
		}
	}

	return cfg, nil
}

// FingerprintOptions converts the config into fingerprint options.
func (c Config) FingerprintOptions() fingerprint.Options {
	return fingerprint.Options{
		Separator: c.Separator,
		Digest:    c.Digest,
	}
}

// ConfigureLogging applies the logging specification, if any.
func (c Config) ConfigureLogging() error {
	if c.Logging == "" {
		return nil
	}
	if err := loggo.ConfigureLoggers(c.Logging); err != nil {
		return errors.Annotatef(err, "configuring loggers %q", c.Logging)
	}
	logger.Debugf("logging configured: %s", c.Logging)
	return nil
}
