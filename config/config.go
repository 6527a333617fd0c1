package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/nijaru/yt-channel-text/youtube"
)

// DefaultDBPath keeps the store in memory for the lifetime of the process.
const DefaultDBPath = "file:ytct?mode=memory&cache=shared"

type Config struct {
	YouTubeAPIKey       string        `yaml:"-"`
	Languages           []string      `yaml:"languages"`
	ChannelVideoCeiling int           `yaml:"channel_video_ceiling"`
	ChannelListing      string        `yaml:"channel_listing"`
	TranscriptWorkers   int           `yaml:"transcript_workers"`
	ServerPort          string        `yaml:"server_port"`
	ReadTimeout         time.Duration `yaml:"read_timeout"`
	WriteTimeout        time.Duration `yaml:"write_timeout"`
	IdleTimeout         time.Duration `yaml:"idle_timeout"`
	TranscribeTimeout   time.Duration `yaml:"transcribe_timeout"`
	RateLimit           int           `yaml:"rate_limit"`
	RateLimitInterval   time.Duration `yaml:"rate_limit_interval"`
	DBPath              string        `yaml:"db_path"`
	LogLevel            string        `yaml:"log_level"`
	LogFormat           string        `yaml:"log_format"`
	LogDir              string        `yaml:"log_dir"`
	Archive             ArchiveConfig `yaml:"archive"`
	S3                  S3Config      `yaml:"s3"`
}

// ArchiveConfig overrides the export template. Empty fields keep the defaults.
type ArchiveConfig struct {
	Separator string `yaml:"separator"`
	Header    string `yaml:"header"`
}

type S3Config struct {
	AccessKey string `yaml:"-"`
	SecretKey string `yaml:"-"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
}

// Enabled reports whether archive uploads are configured.
func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

func defaults() *Config {
	return &Config{
		Languages:           []string{"pt", "en"},
		ChannelVideoCeiling: 200,
		ChannelListing:      youtube.ListingUploads,
		TranscriptWorkers:   1,
		ServerPort:          "8080",
		ReadTimeout:         30 * time.Second,
		WriteTimeout:        5 * time.Minute,
		IdleTimeout:         60 * time.Second,
		TranscribeTimeout:   30 * time.Minute,
		RateLimit:           5,
		RateLimitInterval:   time.Second,
		DBPath:              DefaultDBPath,
		LogLevel:            "info",
		LogFormat:           "text",
		S3: S3Config{
			Region: "us-east-1",
			Prefix: "transcripts/",
		},
	}
}

// Load builds the configuration from, in increasing precedence: defaults, the
// optional YAML file at path, a .env file in the working directory, and the
// process environment.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("Failed to load .env file")
	}

	cfg := defaults()

	if path == "" {
		path = GetEnv("CONFIG_FILE", "")
	}
	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "reading config file %s", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return errors.Wrapf(err, "parsing config file %s", path)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.YouTubeAPIKey = GetEnv("YOUTUBE_API_KEY", cfg.YouTubeAPIKey)
	cfg.Languages = getEnvAsList("TRANSCRIPT_LANGUAGES", cfg.Languages)
	cfg.ChannelVideoCeiling = getEnvAsInt("CHANNEL_VIDEO_CEILING", cfg.ChannelVideoCeiling)
	cfg.ChannelListing = GetEnv("CHANNEL_LISTING", cfg.ChannelListing)
	cfg.TranscriptWorkers = getEnvAsInt("TRANSCRIPT_WORKERS", cfg.TranscriptWorkers)
	cfg.ServerPort = GetEnv("SERVER_PORT", cfg.ServerPort)
	cfg.ReadTimeout = getEnvAsDuration("READ_TIMEOUT", cfg.ReadTimeout)
	cfg.WriteTimeout = getEnvAsDuration("WRITE_TIMEOUT", cfg.WriteTimeout)
	cfg.IdleTimeout = getEnvAsDuration("IDLE_TIMEOUT", cfg.IdleTimeout)
	cfg.TranscribeTimeout = getEnvAsDuration("TRANSCRIBE_TIMEOUT", cfg.TranscribeTimeout)
	cfg.RateLimit = getEnvAsInt("RATE_LIMIT", cfg.RateLimit)
	cfg.RateLimitInterval = getEnvAsDuration("RATE_LIMIT_INTERVAL", cfg.RateLimitInterval)
	cfg.DBPath = GetEnv("DB_PATH", cfg.DBPath)
	cfg.LogLevel = GetEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = GetEnv("LOG_FORMAT", cfg.LogFormat)
	cfg.LogDir = GetEnv("LOG_DIR", cfg.LogDir)
	cfg.S3.AccessKey = GetEnv("S3_ACCESS_KEY", cfg.S3.AccessKey)
	cfg.S3.SecretKey = GetEnv("S3_SECRET_KEY", cfg.S3.SecretKey)
	cfg.S3.Region = GetEnv("S3_REGION", cfg.S3.Region)
	cfg.S3.Endpoint = GetEnv("S3_ENDPOINT", cfg.S3.Endpoint)
	cfg.S3.Bucket = GetEnv("S3_BUCKET", cfg.S3.Bucket)
	cfg.S3.Prefix = GetEnv("S3_PREFIX", cfg.S3.Prefix)
}

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid duration, using default")
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid integer, using default")
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func ValidateConfig(cfg *Config) error {
	if cfg.ServerPort == "" {
		return errors.New("server port is required")
	}
	if cfg.DBPath == "" {
		return errors.New("database path is required")
	}
	if len(cfg.Languages) == 0 {
		return errors.New("at least one transcript language is required")
	}
	if cfg.ChannelVideoCeiling <= 0 {
		return errors.New("channel video ceiling must be greater than 0")
	}
	if cfg.ChannelListing != youtube.ListingUploads && cfg.ChannelListing != youtube.ListingSearch {
		return errors.Errorf("channel listing must be %q or %q, got %q", youtube.ListingUploads, youtube.ListingSearch, cfg.ChannelListing)
	}
	if strings.Contains(cfg.Archive.Header, "%s") {
		return errors.New("archive header takes {title} and {url} placeholders, not printf verbs")
	}
	if cfg.TranscriptWorkers <= 0 {
		return errors.New("transcript workers must be greater than 0")
	}
	if cfg.TranscribeTimeout <= 0 {
		return errors.New("transcribe timeout must be greater than 0")
	}
	if cfg.ReadTimeout <= 0 {
		return errors.New("read timeout must be greater than 0")
	}
	if cfg.WriteTimeout <= 0 {
		return errors.New("write timeout must be greater than 0")
	}
	if cfg.IdleTimeout <= 0 {
		return errors.New("idle timeout must be greater than 0")
	}
	if cfg.RateLimit <= 0 || cfg.RateLimitInterval <= 0 {
		return errors.New("rate limit and interval must be greater than 0")
	}
	return nil
}
