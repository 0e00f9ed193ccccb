package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/drillscope/panel-api/internal/platform/logging"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string
	HTTPAddr       string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	LogLevel       logging.Level

	CORSAllowedOrigins []string
	PanelToken         string

	DrillHQBaseURL               string
	DrillHQToken                 string
	DrillHQTimeout               time.Duration
	DrillHQCircuitEnabled        bool
	DrillHQCircuitFailureCount   int
	DrillHQCircuitOpenTimeout    time.Duration
	DrillHQCircuitHalfOpenMaxReq int

	OverlayBackend  string
	OverlayFilePath string
	DBURL           string

	CacheTTL          time.Duration
	RefreshMaxWorkers int

	UptraceEnabled bool
	UptraceDSN     string

	PprofEnabled bool
	PprofAddr    string

	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

const (
	OverlayBackendFile     = "file"
	OverlayBackendMemory   = "memory"
	OverlayBackendPostgres = "postgres"
)

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}

	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}

	drillHQBaseURL := strings.TrimRight(strings.TrimSpace(getEnv("DRILLHQ_BASE_URL", "")), "/")
	if drillHQBaseURL == "" {
		return Config{}, fmt.Errorf("DRILLHQ_BASE_URL is required")
	}

	drillHQTimeout, err := time.ParseDuration(getEnv("DRILLHQ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DRILLHQ_TIMEOUT: %w", err)
	}
	if drillHQTimeout <= 0 {
		return Config{}, fmt.Errorf("DRILLHQ_TIMEOUT must be > 0")
	}

	drillHQCircuitEnabled, err := strconv.ParseBool(getEnv("DRILLHQ_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DRILLHQ_CIRCUIT_ENABLED: %w", err)
	}

	drillHQCircuitFailureCount, err := getEnvAsInt("DRILLHQ_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse DRILLHQ_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if drillHQCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("DRILLHQ_CIRCUIT_FAILURE_COUNT must be >= 1")
	}

	drillHQCircuitOpenTimeout, err := time.ParseDuration(getEnv("DRILLHQ_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DRILLHQ_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if drillHQCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("DRILLHQ_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}

	drillHQCircuitHalfOpenMaxReq, err := getEnvAsInt("DRILLHQ_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse DRILLHQ_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if drillHQCircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("DRILLHQ_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	overlayBackend, err := parseOverlayBackend(getEnv("OVERLAY_BACKEND", OverlayBackendFile))
	if err != nil {
		return Config{}, err
	}

	overlayFilePath := strings.TrimSpace(getEnv("OVERLAY_FILE_PATH", "data/overlay.jsonl"))
	if overlayBackend == OverlayBackendFile && overlayFilePath == "" {
		return Config{}, fmt.Errorf("OVERLAY_FILE_PATH is required when OVERLAY_BACKEND=file")
	}

	dbURL := strings.TrimSpace(getEnv("DB_URL", ""))
	if overlayBackend == OverlayBackendPostgres && dbURL == "" {
		return Config{}, fmt.Errorf("DB_URL is required when OVERLAY_BACKEND=postgres")
	}

	cacheTTL, err := time.ParseDuration(getEnv("CACHE_TTL", "60s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_TTL: %w", err)
	}
	if cacheTTL <= 0 {
		return Config{}, fmt.Errorf("CACHE_TTL must be > 0")
	}

	refreshMaxWorkers, err := getEnvAsInt("REFRESH_MAX_WORKERS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse REFRESH_MAX_WORKERS: %w", err)
	}
	if refreshMaxWorkers < 1 {
		return Config{}, fmt.Errorf("REFRESH_MAX_WORKERS must be >= 1")
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}

	cfg := Config{
		AppEnv:         appEnv,
		ServiceName:    getEnv("SERVICE_NAME", "panel-api"),
		ServiceVersion: getEnv("SERVICE_VERSION", "dev"),
		HTTPAddr:       getEnv("APP_HTTP_ADDR", ":8080"),
		ReadTimeout:    readTimeout,
		WriteTimeout:   writeTimeout,
		LogLevel:       parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),

		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		PanelToken:         strings.TrimSpace(getEnv("PANEL_TOKEN", "")),

		DrillHQBaseURL:               drillHQBaseURL,
		DrillHQToken:                 strings.TrimSpace(getEnv("DRILLHQ_TOKEN", "")),
		DrillHQTimeout:               drillHQTimeout,
		DrillHQCircuitEnabled:        drillHQCircuitEnabled,
		DrillHQCircuitFailureCount:   drillHQCircuitFailureCount,
		DrillHQCircuitOpenTimeout:    drillHQCircuitOpenTimeout,
		DrillHQCircuitHalfOpenMaxReq: drillHQCircuitHalfOpenMaxReq,

		OverlayBackend:  overlayBackend,
		OverlayFilePath: overlayFilePath,
		DBURL:           dbURL,

		CacheTTL:          cacheTTL,
		RefreshMaxWorkers: refreshMaxWorkers,

		UptraceEnabled: uptraceEnabled,
		UptraceDSN:     uptraceDSN,

		PprofEnabled: pprofEnabled,
		PprofAddr:    getEnv("PPROF_ADDR", "localhost:6060"),

		PyroscopeEnabled:           pyroscopeEnabled,
		PyroscopeServerAddress:     pyroscopeServerAddress,
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
	}

	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	return cfg, nil
}

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}

func parseOverlayBackend(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case OverlayBackendFile, OverlayBackendMemory, OverlayBackendPostgres:
		return value, nil
	default:
		return "", fmt.Errorf("invalid OVERLAY_BACKEND %q: valid values are %s, %s, %s",
			v, OverlayBackendFile, OverlayBackendMemory, OverlayBackendPostgres)
	}
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}
