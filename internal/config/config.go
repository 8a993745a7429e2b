package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Backend string

const (
	BackendADK   Backend = "adk"
	BackendGenAI Backend = "genai"
	BackendMock  Backend = "mock"
)

const (
	DefaultModelName      = "gemini-2.5-pro"
	DefaultExtractTimeout = 60 * time.Second
	DefaultQuestionBudget = 4
)

// R2Config holds Cloudflare R2 credentials for résumé import.
type R2Config struct {
	AccountID string
	Bucket    string
	AccessKey string
	SecretKey string
}

// Enabled reports whether every R2 setting is present.
func (r R2Config) Enabled() bool {
	return r.AccountID != "" && r.Bucket != "" && r.AccessKey != "" && r.SecretKey != ""
}

type Config struct {
	Extractor    Backend
	GoogleAPIKey string
	ModelName    string
	GCPProjectID string // genai backend on Vertex AI
	GCPLocation  string

	ExtractTimeout time.Duration
	QuestionBudget int
	LogLevel       string

	RabbitMQURL string
	DBURL       string
	R2          R2Config
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Load reads .env when present, then builds the config from the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds the config from environment variables only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Extractor:    Backend(getEnv("CV_EXTRACTOR", string(BackendADK))),
		GoogleAPIKey: os.Getenv("GOOGLE_API_KEY"),
		ModelName:    getEnv("CV_MODEL_NAME", DefaultModelName),
		GCPProjectID: os.Getenv("CV_GCP_PROJECT"),
		GCPLocation:  getEnv("CV_GCP_LOCATION", "us-central1"),
		LogLevel:     getEnv("CV_LOG_LEVEL", "info"),
		RabbitMQURL:  os.Getenv("RABBITMQ_URL"),
		DBURL:        os.Getenv("DB_URL"),
		R2: R2Config{
			AccountID: os.Getenv("R2_ACCOUNT_ID"),
			Bucket:    os.Getenv("R2_BUCKET"),
			AccessKey: os.Getenv("R2_ACCESS_KEY"),
			SecretKey: os.Getenv("R2_SECRET_KEY"),
		},
	}

	timeout, err := time.ParseDuration(getEnv("CV_EXTRACT_TIMEOUT", DefaultExtractTimeout.String()))
	if err != nil || timeout <= 0 {
		return nil, fmt.Errorf("invalid CV_EXTRACT_TIMEOUT %q", os.Getenv("CV_EXTRACT_TIMEOUT"))
	}
	cfg.ExtractTimeout = timeout

	budget, err := strconv.Atoi(getEnv("CV_QUESTION_BUDGET", strconv.Itoa(DefaultQuestionBudget)))
	if err != nil || budget <= 0 {
		return nil, fmt.Errorf("invalid CV_QUESTION_BUDGET %q", os.Getenv("CV_QUESTION_BUDGET"))
	}
	cfg.QuestionBudget = budget

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Extractor {
	case BackendMock:
	case BackendADK:
		if c.GoogleAPIKey == "" {
			return errors.New("empty GOOGLE_API_KEY in env")
		}
	case BackendGenAI:
		if c.GoogleAPIKey == "" && c.GCPProjectID == "" {
			return errors.New("genai extractor needs GOOGLE_API_KEY or CV_GCP_PROJECT")
		}
	default:
		return fmt.Errorf("unknown CV_EXTRACTOR %q", c.Extractor)
	}
	return nil
}

// RequireWorker checks the settings the queue worker cannot run without.
func (c *Config) RequireWorker() error {
	if c.RabbitMQURL == "" {
		return errors.New("empty RABBITMQ_URL in env")
	}
	if c.DBURL == "" {
		return errors.New("empty DB_URL in environment")
	}
	return nil
}
