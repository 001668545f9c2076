package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures environment driven configuration values for the door
// security service.
type Config struct {
	HTTPPort          int
	SQLiteDSN         string
	TokenSecret       string
	TokenTTL          time.Duration
	ActuatorBaseURL   string
	ActuatorTimeout   time.Duration
	FailureThreshold  int
	FailureWindow     time.Duration
	EntryRequestRate  float64
	EntryRequestBurst int
	AdminEmail        string
	AdminPassword     string
}

// Load parses configuration values from the current process environment.
//
// Optional fields fall back to defaults; required values are validated and
// reported together so operators see every missing entry in one pass.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:          3001,
		SQLiteDSN:         "file:security.db?_foreign_keys=on",
		TokenTTL:          7 * 24 * time.Hour,
		ActuatorTimeout:   8 * time.Second,
		FailureThreshold:  3,
		FailureWindow:     5 * time.Minute,
		EntryRequestRate:  1,
		EntryRequestBurst: 5,
	}

	missing := make([]string, 0, 2)
	invalid := make([]string, 0, 4)

	if portValue := strings.TrimSpace(os.Getenv("DOOR_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "DOOR_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("DOOR_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if secret := strings.TrimSpace(os.Getenv("DOOR_TOKEN_SECRET")); secret == "" {
		missing = append(missing, "DOOR_TOKEN_SECRET")
	} else {
		cfg.TokenSecret = secret
	}

	if ttlValue := strings.TrimSpace(os.Getenv("DOOR_TOKEN_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "DOOR_TOKEN_TTL")
		} else {
			cfg.TokenTTL = ttl
		}
	}

	if base := strings.TrimSpace(os.Getenv("DOOR_ACTUATOR_URL")); base == "" {
		missing = append(missing, "DOOR_ACTUATOR_URL")
	} else {
		cfg.ActuatorBaseURL = strings.TrimRight(base, "/")
	}

	if timeoutValue := strings.TrimSpace(os.Getenv("DOOR_ACTUATOR_TIMEOUT")); timeoutValue != "" {
		timeout, err := time.ParseDuration(timeoutValue)
		if err != nil || timeout <= 0 {
			invalid = append(invalid, "DOOR_ACTUATOR_TIMEOUT")
		} else {
			cfg.ActuatorTimeout = timeout
		}
	}

	if thresholdValue := strings.TrimSpace(os.Getenv("DOOR_FAILURE_THRESHOLD")); thresholdValue != "" {
		threshold, err := strconv.Atoi(thresholdValue)
		if err != nil || threshold <= 0 {
			invalid = append(invalid, "DOOR_FAILURE_THRESHOLD")
		} else {
			cfg.FailureThreshold = threshold
		}
	}

	if windowValue := strings.TrimSpace(os.Getenv("DOOR_FAILURE_WINDOW")); windowValue != "" {
		window, err := time.ParseDuration(windowValue)
		if err != nil || window <= 0 {
			invalid = append(invalid, "DOOR_FAILURE_WINDOW")
		} else {
			cfg.FailureWindow = window
		}
	}

	if rateValue := strings.TrimSpace(os.Getenv("DOOR_ENTRY_REQUEST_RATE")); rateValue != "" {
		rate, err := strconv.ParseFloat(rateValue, 64)
		if err != nil || rate <= 0 {
			invalid = append(invalid, "DOOR_ENTRY_REQUEST_RATE")
		} else {
			cfg.EntryRequestRate = rate
		}
	}

	if burstValue := strings.TrimSpace(os.Getenv("DOOR_ENTRY_REQUEST_BURST")); burstValue != "" {
		burst, err := strconv.Atoi(burstValue)
		if err != nil || burst <= 0 {
			invalid = append(invalid, "DOOR_ENTRY_REQUEST_BURST")
		} else {
			cfg.EntryRequestBurst = burst
		}
	}

	cfg.AdminEmail = strings.TrimSpace(os.Getenv("DOOR_ADMIN_EMAIL"))
	cfg.AdminPassword = os.Getenv("DOOR_ADMIN_PASSWORD")

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("variables d'environnement requises manquantes: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("valeurs d'environnement invalides: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
