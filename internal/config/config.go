package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
)

type Config struct {
	// Server
	Port string

	// Limits
	MaxUploadBytes      int64
	MaxSpreadsheetBytes int64
	MaxTextBytes        int64

	// Concurrency
	MaxConcurrentRequests int64

	// Server timeouts
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration

	// Request timeouts
	RequestTimeout time.Duration

	// rate limiting (per IP)
	RateLimitEvery time.Duration
	RateLimitBurst int

	// housekeeping
	CleanupInterval    time.Duration
	SessionIdleTimeout time.Duration

	// health
	HealthDegradeRatio float64

	// http
	MaxHeaderBytes int

	// Sheet splitter output root; per-workbook folders are created below it.
	SplitOutputRoot string

	// PDF word counting backend: "native" or "poppler"
	PDFBackend       string
	PDFToTextTimeout time.Duration
	PDFPageWorkers   int

	// Report summarizer
	ReportCSVEncoding string

	// Logging
	LogLevel  string
	LogFormat string

	// Optional YAML file with list/structured settings
	ConfigFile string
	File       FileConfig
}

func Load() (Config, error) {
	cfg := Config{
		Port: envStr("PORT", "8080"),

		MaxUploadBytes:      int64(envInt("MAX_UPLOAD_BYTES", int(50<<20))),
		MaxSpreadsheetBytes: int64(envInt("MAX_SPREADSHEET_BYTES", int(50<<20))),
		MaxTextBytes:        int64(envInt("MAX_TEXT_BYTES", int(2<<20))),

		MaxConcurrentRequests: int64(envInt("MAX_CONCURRENT_REQUESTS", 8)),

		ReadHeaderTimeout: envDur("READ_HEADER_TIMEOUT", 10*time.Second),
		ReadTimeout:       envDur("READ_TIMEOUT", 60*time.Second),
		WriteTimeout:      envDur("WRITE_TIMEOUT", 120*time.Second),
		IdleTimeout:       envDur("IDLE_TIMEOUT", 60*time.Second),

		RequestTimeout: envDur("REQUEST_TIMEOUT", 90*time.Second),

		RateLimitEvery: envDur("RATE_LIMIT_EVERY", 600*time.Millisecond),
		RateLimitBurst: envInt("RATE_LIMIT_BURST", 20),

		CleanupInterval:    envDur("CLEANUP_INTERVAL", 5*time.Minute),
		SessionIdleTimeout: envDur("SESSION_IDLE_TIMEOUT", 30*time.Minute),

		HealthDegradeRatio: envFloat("HEALTH_DEGRADE_RATIO", 0.9),

		MaxHeaderBytes: envInt("MAX_HEADER_BYTES", 1<<20),

		SplitOutputRoot: envStr("SPLIT_OUTPUT_ROOT", "."),

		PDFBackend:       strings.ToLower(envStr("PDF_BACKEND", "native")),
		PDFToTextTimeout: envDur("PDFTOTEXT_TIMEOUT", 30*time.Second),
		PDFPageWorkers:   envInt("PDF_PAGE_WORKERS", 4),

		ReportCSVEncoding: strings.ToLower(envStr("REPORT_CSV_ENCODING", "utf-8")),

		LogLevel:  strings.ToLower(envStr("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(envStr("LOG_FORMAT", "text")),

		ConfigFile: envStr("CONFIG_FILE", ""),
		File:       DefaultFileConfig(),
	}

	if cfg.ConfigFile != "" {
		fc, err := LoadFile(cfg.ConfigFile)
		if err != nil {
			return cfg, err
		}
		cfg.File = fc
	}

	if v := envStr("COLUMN_KEYWORDS", ""); v != "" {
		cfg.File.Column.Keywords = splitList(v)
	}

	return cfg, nil
}

func (c Config) Validate() error {
	switch c.PDFBackend {
	case "native", "poppler":
	default:
		return fmt.Errorf("PDF_BACKEND must be native or poppler, got %q", c.PDFBackend)
	}
	if e, _ := charset.Lookup(c.ReportCSVEncoding); e == nil {
		return fmt.Errorf("REPORT_CSV_ENCODING %q is not a known encoding label", c.ReportCSVEncoding)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	if strings.TrimSpace(c.SplitOutputRoot) == "" {
		return fmt.Errorf("SPLIT_OUTPUT_ROOT must not be empty")
	}
	return c.File.Validate()
}

func envStr(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return fallback
	}
	return f
}

func envDur(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
