package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration for the ingest service, loaded
// from environment variables.
type Config struct {
	// HTTP API.
	HTTPAddr        string
	CellCacheSize   int // marshaled-cell LRU entries; 0 disables the cache
	ShutdownTimeout time.Duration

	// Logging.
	LogLevel  string
	LogFormat string

	// Rebuild orchestration.
	WorkerCount     int           // concurrent partition fetches per rebuild
	RetryBackoff    time.Duration // pause before the second fetch pass
	RebuildInterval time.Duration // scheduled rebuild period; 0 disables
	Partitions      []string      // jurisdiction codes to fetch

	// Compliance upstream.
	ComplianceBaseURL  string
	CompliancePageSize int
	FetchTimeout       time.Duration
	RetryFetchTimeout  time.Duration

	// Water-quality upstream.
	WaterQualityBaseURL           string
	WaterQualityPageSize          int
	WaterQualityFetchTimeout      time.Duration
	WaterQualityRetryFetchTimeout time.Duration
	PageDelay                     time.Duration // politeness delay between pages

	// Alert publishing. Clearing KAFKA_BROKERS disables the alert hook.
	KafkaBrokers    []string
	KafkaAlertTopic string

	// Reading archive. Empty ARCHIVE_DATABASE_URL disables archiving.
	ArchiveDatabaseURL string
	ArchiveSampleLimit int // readings archived per partition per rebuild
}

// Load reads configuration from environment variables, applying defaults
// for anything unset.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPAddr:            envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:            envOrDefault("LOG_LEVEL", "info"),
		LogFormat:           envOrDefault("LOG_FORMAT", "json"),
		Partitions:          parseList(envOrDefault("PARTITIONS", "DC,DE,MD,PA,VA,WV")),
		ComplianceBaseURL:   envOrDefault("COMPLIANCE_BASE_URL", "https://data.epa.gov/efservice"),
		WaterQualityBaseURL: envOrDefault("WATERQUALITY_BASE_URL", "https://www.waterqualitydata.us/data"),
		KafkaAlertTopic:     envOrDefault("KAFKA_ALERT_TOPIC", "water-quality-alerts"),
		ArchiveDatabaseURL:  os.Getenv("ARCHIVE_DATABASE_URL"),
	}

	// LookupEnv, not Getenv: KAFKA_BROKERS set to the empty string is the
	// documented way to switch alert publishing off.
	brokers, ok := os.LookupEnv("KAFKA_BROKERS")
	if !ok {
		brokers = "localhost:9092"
	}
	cfg.KafkaBrokers = parseList(brokers)

	var err error
	if cfg.WorkerCount, err = parseIntEnv("WORKER_COUNT", 5); err != nil {
		return nil, err
	}
	if cfg.CellCacheSize, err = parseIntEnv("CELL_CACHE_SIZE", 256); err != nil {
		return nil, err
	}
	if cfg.CompliancePageSize, err = parseIntEnv("COMPLIANCE_PAGE_SIZE", 10000); err != nil {
		return nil, err
	}
	if cfg.WaterQualityPageSize, err = parseIntEnv("WATERQUALITY_PAGE_SIZE", 5000); err != nil {
		return nil, err
	}
	if cfg.ArchiveSampleLimit, err = parseIntEnv("ARCHIVE_SAMPLE_LIMIT", 500); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = parseDurationEnv("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.RetryBackoff, err = parseDurationEnv("RETRY_BACKOFF", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.RebuildInterval, err = parseDurationEnv("REBUILD_INTERVAL", 6*time.Hour); err != nil {
		return nil, err
	}
	if cfg.FetchTimeout, err = parseDurationEnv("FETCH_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.RetryFetchTimeout, err = parseDurationEnv("RETRY_FETCH_TIMEOUT", 90*time.Second); err != nil {
		return nil, err
	}
	if cfg.WaterQualityFetchTimeout, err = parseDurationEnv("WATERQUALITY_FETCH_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.WaterQualityRetryFetchTimeout, err = parseDurationEnv("WATERQUALITY_RETRY_FETCH_TIMEOUT", 180*time.Second); err != nil {
		return nil, err
	}
	if cfg.PageDelay, err = parseDurationEnv("PAGE_DELAY", 2*time.Second); err != nil {
		return nil, err
	}

	for i, p := range cfg.Partitions {
		cfg.Partitions[i] = strings.ToUpper(p)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// AlertsEnabled reports whether the Kafka alert hook should be wired.
func (c *Config) AlertsEnabled() bool {
	return len(c.KafkaBrokers) > 0 && c.KafkaAlertTopic != ""
}

// ArchiveEnabled reports whether the reading archive hook should be wired.
func (c *Config) ArchiveEnabled() bool {
	return c.ArchiveDatabaseURL != ""
}

func (c *Config) validate() error {
	if c.WorkerCount < 1 || c.WorkerCount > 8 {
		return fmt.Errorf("WORKER_COUNT must be between 1 and 8, got %d", c.WorkerCount)
	}
	if len(c.Partitions) == 0 {
		return fmt.Errorf("PARTITIONS must name at least one jurisdiction")
	}
	if c.ComplianceBaseURL == "" {
		return fmt.Errorf("COMPLIANCE_BASE_URL must not be empty")
	}
	if c.WaterQualityBaseURL == "" {
		return fmt.Errorf("WATERQUALITY_BASE_URL must not be empty")
	}
	if c.CompliancePageSize < 1 {
		return fmt.Errorf("COMPLIANCE_PAGE_SIZE must be positive, got %d", c.CompliancePageSize)
	}
	if c.WaterQualityPageSize < 1 {
		return fmt.Errorf("WATERQUALITY_PAGE_SIZE must be positive, got %d", c.WaterQualityPageSize)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %s", c.ShutdownTimeout)
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("RETRY_BACKOFF must not be negative, got %s", c.RetryBackoff)
	}
	if c.RebuildInterval < 0 {
		return fmt.Errorf("REBUILD_INTERVAL must not be negative, got %s", c.RebuildInterval)
	}
	if c.PageDelay < 0 {
		return fmt.Errorf("PAGE_DELAY must not be negative, got %s", c.PageDelay)
	}
	if c.CellCacheSize < 0 {
		return fmt.Errorf("CELL_CACHE_SIZE must not be negative, got %d", c.CellCacheSize)
	}
	if c.ArchiveSampleLimit < 1 {
		return fmt.Errorf("ARCHIVE_SAMPLE_LIMIT must be positive, got %d", c.ArchiveSampleLimit)
	}
	return nil
}

// envOrDefault returns the environment value for key, or def when unset or
// blank.
func envOrDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func parseIntEnv(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, raw)
	}
	return v, nil
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like \"90s\" or \"6h\", got %q", key, raw)
	}
	return v, nil
}

// parseList splits a comma-separated value, trimming whitespace and
// dropping empty entries. An entirely empty value yields nil, which is how
// KAFKA_BROKERS="" disables alert publishing.
func parseList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
