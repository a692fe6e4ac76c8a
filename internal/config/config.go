package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/ragprep/internal/chunker"
	"github.com/dgallion1/ragprep/internal/cleaner"
	"github.com/dgallion1/ragprep/internal/organizer"
	"github.com/dgallion1/ragprep/internal/structure"
	"github.com/spf13/viper"
)

// Extraction configures the parsing phase.
type Extraction struct {
	// PDFFallbackPdftotext shells out to pdftotext when native PDF
	// extraction fails or yields nothing.
	PDFFallbackPdftotext bool `json:"pdf_fallback_pdftotext" mapstructure:"pdf_fallback_pdftotext"`
}

// Pipeline aggregates the per-phase configuration. The zero value is not
// usable; start from Default or Load.
type Pipeline struct {
	Extraction Extraction       `json:"extraction" mapstructure:"extraction"`
	Structure  structure.Config `json:"structure" mapstructure:"structure"`
	Cleaning   cleaner.Config   `json:"cleaning" mapstructure:"cleaning"`
	Chunking   chunker.Config   `json:"chunking" mapstructure:"chunking"`
	Output     organizer.Config `json:"output" mapstructure:"output"`
}

// Default returns the pipeline configuration with every phase at its
// standard settings.
func Default() Pipeline {
	return Pipeline{
		Extraction: Extraction{PDFFallbackPdftotext: true},
		Structure:  structure.DefaultConfig(),
		Cleaning:   cleaner.DefaultConfig(),
		Chunking:   chunker.DefaultConfig(),
		Output:     organizer.DefaultConfig(),
	}
}

// Load layers an optional YAML file and RAGPREP_* environment variables
// over the defaults. An empty path skips the file entirely.
func Load(path string) (Pipeline, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("RAGPREP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The knobs most often tuned per deployment.
	v.BindEnv("chunking.max_chunk_size")
	v.BindEnv("chunking.chunk_overlap")
	v.BindEnv("structure.heading_isolation_threshold")
	v.BindEnv("cleaning.crop_bottom_percent")
	v.BindEnv("extraction.pdf_fallback_pdftotext")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Pipeline) Validate() error {
	if c.Chunking.MaxChunkSize <= 0 {
		return fmt.Errorf("chunking.max_chunk_size must be positive, got %d", c.Chunking.MaxChunkSize)
	}
	if c.Chunking.ChunkOverlap < 0 || c.Chunking.ChunkOverlap >= c.Chunking.MaxChunkSize {
		return fmt.Errorf("chunking.chunk_overlap must be in [0, max_chunk_size), got %d", c.Chunking.ChunkOverlap)
	}
	if t := c.Structure.HeadingIsolationThreshold; t < 0 || t > 1 {
		return fmt.Errorf("structure.heading_isolation_threshold must be in [0, 1], got %g", t)
	}
	for _, p := range []float64{
		c.Cleaning.CropTopPercent,
		c.Cleaning.CropBottomPercent,
		c.Cleaning.CropLeftPercent,
		c.Cleaning.CropRightPercent,
	} {
		if p < 0 || p > 100 {
			return fmt.Errorf("cleaning crop percentages must be in [0, 100], got %g", p)
		}
	}
	return nil
}

// Server holds the HTTP service settings, read from the environment.
type Server struct {
	Port   string
	APIKey string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// DataDir is where uploads and per-job output trees live.
	DataDir string

	// ConfigPath optionally points at a pipeline YAML file.
	ConfigPath string
}

func LoadServer() Server {
	cfg := Server{
		Port:   envOr("PORT", "8085"),
		APIKey: os.Getenv("RAGPREP_API_KEY"),

		WorkerCount:  envInt("WORKER_COUNT", 2),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 16),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 26214400), // 25MB

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		DataDir:    envOr("DATA_DIR", "data"),
		ConfigPath: os.Getenv("RAGPREP_CONFIG"),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 16
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 26214400
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

func (c Server) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("RAGPREP_API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
