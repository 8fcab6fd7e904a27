package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Outline    OutlineConfig    `yaml:"outline"`
	Section    SectionConfig    `yaml:"section"`
	Rank       RankConfig       `yaml:"rank"`
	Similarity SimilarityConfig `yaml:"similarity"`
}

type ServerConfig struct {
	Port           string `yaml:"port"`
	APIKey         string `yaml:"api_key"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
	MaxRequestBody int64  `yaml:"max_request_body"`
}

type PipelineConfig struct {
	Workers    int      `yaml:"workers"`
	Timeout    Duration `yaml:"timeout"`
	QueueSize  int      `yaml:"queue_size"`
	JobWorkers int      `yaml:"job_workers"`
	JobTTL     Duration `yaml:"job_ttl"`
}

type OutlineConfig struct {
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	MaxHeadingChars     int     `yaml:"max_heading_chars"`
	BoilerplateFraction float64 `yaml:"boilerplate_page_fraction"`
	TitleLengthCap      int     `yaml:"title_length_cap"`
	TitleFallbackBlocks int     `yaml:"title_fallback_blocks"`
}

type SectionConfig struct {
	CharCap        int `yaml:"char_cap"`
	RefinedTextCap int `yaml:"refined_text_cap"`
}

type RankConfig struct {
	MaxSections       int     `yaml:"max_sections"`
	MaxSubsections    int     `yaml:"max_subsections"`
	SalienceThreshold float64 `yaml:"salience_threshold"`
	KeywordLimit      int     `yaml:"keyword_limit"`
}

type SimilarityConfig struct {
	Endpoint   string   `yaml:"endpoint"`
	APIKey     string   `yaml:"api_key"`
	Model      string   `yaml:"model"`
	Dimensions int      `yaml:"dimensions"`
	Timeout    Duration `yaml:"timeout"`
}

// Duration unmarshals from YAML strings like "60s" or bare numbers
// interpreted as seconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, perr := time.ParseDuration(s)
		if perr != nil {
			return fmt.Errorf("invalid duration %q: %w", s, perr)
		}
		*d = Duration(parsed)
		return nil
	}
	var secs float64
	if err := value.Decode(&secs); err != nil {
		return fmt.Errorf("invalid duration: %w", err)
	}
	*d = Duration(time.Duration(secs * float64(time.Second)))
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:           "8080",
			MaxUploadBytes: 52428800, // 50MB
			MaxRequestBody: 1048576,  // 1MB
		},
		Pipeline: PipelineConfig{
			Workers:    runtime.NumCPU(),
			Timeout:    Duration(60 * time.Second),
			QueueSize:  32,
			JobWorkers: 2,
			JobTTL:     Duration(1 * time.Hour),
		},
		Outline: OutlineConfig{
			ConfidenceThreshold: 0.5,
			MaxHeadingChars:     200,
			BoilerplateFraction: 0.5,
			TitleLengthCap:      150,
			TitleFallbackBlocks: 3,
		},
		Section: SectionConfig{
			CharCap:        0, // unlimited
			RefinedTextCap: 500,
		},
		Rank: RankConfig{
			MaxSections:       10,
			MaxSubsections:    5,
			SalienceThreshold: 0.5,
			KeywordLimit:      12,
		},
		Similarity: SimilarityConfig{
			Model:   "text-embedding-3-small",
			Timeout: Duration(30 * time.Second),
		},
	}
}

// Load builds a Config from defaults, an optional YAML file, and
// environment overrides, in that order.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.Server.Port = envOr("DOCRANK_PORT", cfg.Server.Port)
	cfg.Server.APIKey = envOr("DOCRANK_API_KEY", cfg.Server.APIKey)
	cfg.Server.MaxUploadBytes = envInt64("DOCRANK_MAX_UPLOAD_BYTES", cfg.Server.MaxUploadBytes)
	cfg.Server.MaxRequestBody = envInt64("DOCRANK_MAX_REQUEST_BODY", cfg.Server.MaxRequestBody)

	cfg.Pipeline.Workers = envInt("DOCRANK_WORKERS", cfg.Pipeline.Workers)
	cfg.Pipeline.Timeout = Duration(envDuration("DOCRANK_TIMEOUT", cfg.Pipeline.Timeout.Std()))
	cfg.Pipeline.QueueSize = envInt("DOCRANK_QUEUE_SIZE", cfg.Pipeline.QueueSize)
	cfg.Pipeline.JobWorkers = envInt("DOCRANK_JOB_WORKERS", cfg.Pipeline.JobWorkers)
	cfg.Pipeline.JobTTL = Duration(envDuration("DOCRANK_JOB_TTL", cfg.Pipeline.JobTTL.Std()))

	cfg.Outline.ConfidenceThreshold = envFloat("DOCRANK_CONFIDENCE_THRESHOLD", cfg.Outline.ConfidenceThreshold)
	cfg.Outline.MaxHeadingChars = envInt("DOCRANK_MAX_HEADING_CHARS", cfg.Outline.MaxHeadingChars)
	cfg.Outline.BoilerplateFraction = envFloat("DOCRANK_BOILERPLATE_FRACTION", cfg.Outline.BoilerplateFraction)
	cfg.Outline.TitleLengthCap = envInt("DOCRANK_TITLE_LENGTH_CAP", cfg.Outline.TitleLengthCap)
	cfg.Outline.TitleFallbackBlocks = envInt("DOCRANK_TITLE_FALLBACK_BLOCKS", cfg.Outline.TitleFallbackBlocks)

	cfg.Section.CharCap = envInt("DOCRANK_SECTION_CHAR_CAP", cfg.Section.CharCap)
	cfg.Section.RefinedTextCap = envInt("DOCRANK_REFINED_TEXT_CAP", cfg.Section.RefinedTextCap)

	cfg.Rank.MaxSections = envInt("DOCRANK_MAX_SECTIONS", cfg.Rank.MaxSections)
	cfg.Rank.MaxSubsections = envInt("DOCRANK_MAX_SUBSECTIONS", cfg.Rank.MaxSubsections)
	cfg.Rank.SalienceThreshold = envFloat("DOCRANK_SALIENCE_THRESHOLD", cfg.Rank.SalienceThreshold)
	cfg.Rank.KeywordLimit = envInt("DOCRANK_KEYWORD_LIMIT", cfg.Rank.KeywordLimit)

	cfg.Similarity.Endpoint = envOr("DOCRANK_EMBED_ENDPOINT", cfg.Similarity.Endpoint)
	cfg.Similarity.APIKey = envOr("DOCRANK_EMBED_API_KEY", cfg.Similarity.APIKey)
	cfg.Similarity.Model = envOr("DOCRANK_EMBED_MODEL", cfg.Similarity.Model)
	cfg.Similarity.Dimensions = envInt("DOCRANK_EMBED_DIMENSIONS", cfg.Similarity.Dimensions)
	cfg.Similarity.Timeout = Duration(envDuration("DOCRANK_EMBED_TIMEOUT", cfg.Similarity.Timeout.Std()))

	cfg.clamp()
	return cfg, nil
}

func (c *Config) clamp() {
	if c.Pipeline.Workers <= 0 {
		c.Pipeline.Workers = runtime.NumCPU()
	}
	if c.Pipeline.Timeout <= 0 {
		c.Pipeline.Timeout = Duration(60 * time.Second)
	}
	if c.Pipeline.QueueSize <= 0 {
		c.Pipeline.QueueSize = 32
	}
	if c.Pipeline.JobWorkers <= 0 {
		c.Pipeline.JobWorkers = 2
	}
	if c.Pipeline.JobTTL <= 0 {
		c.Pipeline.JobTTL = Duration(1 * time.Hour)
	}
	if c.Server.MaxUploadBytes <= 0 {
		c.Server.MaxUploadBytes = 52428800
	}
	if c.Server.MaxRequestBody <= 0 {
		c.Server.MaxRequestBody = 1048576
	}
	if c.Outline.MaxHeadingChars <= 0 {
		c.Outline.MaxHeadingChars = 200
	}
	if c.Outline.TitleLengthCap <= 0 {
		c.Outline.TitleLengthCap = 150
	}
	if c.Outline.TitleFallbackBlocks <= 0 {
		c.Outline.TitleFallbackBlocks = 3
	}
	if c.Section.RefinedTextCap <= 0 {
		c.Section.RefinedTextCap = 500
	}
	if c.Rank.MaxSections <= 0 {
		c.Rank.MaxSections = 10
	}
	if c.Rank.MaxSubsections <= 0 {
		c.Rank.MaxSubsections = 5
	}
	if c.Rank.KeywordLimit <= 0 {
		c.Rank.KeywordLimit = 12
	}
	if c.Similarity.Timeout <= 0 {
		c.Similarity.Timeout = Duration(30 * time.Second)
	}
}

func (c Config) Validate() error {
	if c.Outline.ConfidenceThreshold < 0 || c.Outline.ConfidenceThreshold > 1 {
		return fmt.Errorf("outline.confidence_threshold must be in [0,1], got %v", c.Outline.ConfidenceThreshold)
	}
	if c.Outline.BoilerplateFraction <= 0 || c.Outline.BoilerplateFraction > 1 {
		return fmt.Errorf("outline.boilerplate_page_fraction must be in (0,1], got %v", c.Outline.BoilerplateFraction)
	}
	if c.Rank.SalienceThreshold < 0 || c.Rank.SalienceThreshold > 1 {
		return fmt.Errorf("rank.salience_threshold must be in [0,1], got %v", c.Rank.SalienceThreshold)
	}
	if c.Rank.MaxSubsections > c.Rank.MaxSections {
		return fmt.Errorf("rank.max_subsections (%d) cannot exceed rank.max_sections (%d)",
			c.Rank.MaxSubsections, c.Rank.MaxSections)
	}
	if c.Similarity.Endpoint != "" && c.Similarity.Model == "" {
		return fmt.Errorf("similarity.model is required when similarity.endpoint is set")
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

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
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
