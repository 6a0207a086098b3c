// Package config loads dataflow's process configuration from the
// environment, the way every service in this codebase does.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service configuration.
type Config struct {
	Service   ServiceConfig
	Comm      CommConfig
	Status    StatusServerConfig
	Audit     AuditConfig
	Telemetry TelemetryConfig
}

// ServiceConfig holds process-wide settings.
type ServiceConfig struct {
	Name      string
	LogLevel  string
	LogFormat string
}

// CommConfig holds communication-layer settings read from the environment.
// Only Mode is checked, by Validate; launch and start take the transport
// mode and endpoints from the descriptor's Deploy blocks and do not fall
// back to these values.
type CommConfig struct {
	// Mode names a transport: "redis" (default) or "local" (in-memory,
	// single-process only).
	Mode      string
	Endpoints []string
}

// StatusServerConfig holds the optional live-status HTTP+WebSocket board.
type StatusServerConfig struct {
	Enabled bool
	Port    int
}

// AuditConfig holds the optional Postgres-backed run history settings.
type AuditConfig struct {
	Enabled     bool
	DatabaseURL string
	MaxConns    int
	MinConns    int
	MaxIdleTime time.Duration
	MaxLifetime time.Duration
}

// TelemetryConfig holds the optional pprof debug server settings.
type TelemetryConfig struct {
	EnablePprof bool
	PprofPort   int
	MetricsPort int
}

// Load loads configuration from environment variables.
func Load(serviceName string) (*Config, error) {
	cfg := &Config{
		Service: ServiceConfig{
			Name:      serviceName,
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			LogFormat: getEnv("LOG_FORMAT", "text"),
		},
		Comm: CommConfig{
			Mode:      getEnv("DATAFLOW_COMM_MODE", "redis"),
			Endpoints: getEnvSlice("DATAFLOW_COMM_ENDPOINTS", []string{"127.0.0.1:6379"}),
		},
		Status: StatusServerConfig{
			Enabled: getEnvBool("STATUS_SERVER_ENABLED", false),
			Port:    getEnvInt("STATUS_SERVER_PORT", 7463),
		},
		Audit: AuditConfig{
			Enabled:     getEnvBool("AUDIT_ENABLED", false),
			DatabaseURL: getEnv("AUDIT_DATABASE_URL", ""),
			MaxConns:    getEnvInt("AUDIT_MAX_CONNS", 10),
			MinConns:    getEnvInt("AUDIT_MIN_CONNS", 1),
			MaxIdleTime: getEnvDuration("AUDIT_MAX_IDLE_TIME", 30*time.Minute),
			MaxLifetime: getEnvDuration("AUDIT_MAX_LIFETIME", 1*time.Hour),
		},
		Telemetry: TelemetryConfig{
			EnablePprof: getEnvBool("TELEMETRY_ENABLE_PPROF", false),
			PprofPort:   getEnvInt("TELEMETRY_PPROF_PORT", 6060),
			MetricsPort: getEnvInt("TELEMETRY_METRICS_PORT", 9090),
		},
	}

	return cfg, cfg.Validate()
}

// Validate checks whether the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Comm.Mode != "redis" && c.Comm.Mode != "local" {
		return fmt.Errorf("invalid comm mode: %q (must be \"redis\" or \"local\")", c.Comm.Mode)
	}
	if c.Status.Enabled && (c.Status.Port < 1 || c.Status.Port > 65535) {
		return fmt.Errorf("invalid status server port: %d", c.Status.Port)
	}
	if c.Audit.Enabled && c.Audit.DatabaseURL == "" {
		return fmt.Errorf("audit enabled but AUDIT_DATABASE_URL is empty")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
