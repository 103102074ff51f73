package config

import (
	"fmt"
	"log"

	"crf-trainer/internal/core/crfpp"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL" envDefault:"sqlite://crf_runs.db"`

	S3EndpointURL     string `env:"S3_ENDPOINT_URL"`
	S3AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	S3Region          string `env:"AWS_REGION" envDefault:"us-east-1"`
	ModelBucketName   string `env:"MODEL_BUCKET_NAME" envDefault:"crf-models"`

	// LocalStoreDir publishes artifacts to a directory instead of S3 when set.
	LocalStoreDir string `env:"LOCAL_STORE_DIR"`

	APIPort string `env:"API_PORT" envDefault:"8001"`

	CRF crfpp.Options
}

// LoadEnvFile loads variables from path into the process environment. With an empty
// path a .env file in the working directory is loaded if present.
func LoadEnvFile(path string) error {
	if path == "" {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found or error loading, continuing with environment variables")
		}
		return nil
	}

	log.Printf("loading env from file %s", path)
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("error loading env file '%s': %w", path, err)
	}
	return nil
}

func LoadConfig(envFile string) (*Config, error) {
	if err := LoadEnvFile(envFile); err != nil {
		return nil, err
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseConfig reads the configuration from the given variables only.
func ParseConfig(environment map[string]string) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environment}); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.S3EndpointURL != "" && (c.S3AccessKeyID == "" || c.S3SecretAccessKey == "") {
		log.Println("Warning: S3_ENDPOINT_URL is set, but AWS_ACCESS_KEY_ID or AWS_SECRET_ACCESS_KEY are missing.")
	}
	switch c.CRF.Algorithm {
	case "", crfpp.AlgorithmL2, crfpp.AlgorithmL1, crfpp.AlgorithmMIRA:
	default:
		return fmt.Errorf("invalid CRF_ALGORITHM %q", c.CRF.Algorithm)
	}
	if c.CRF.Cost < 0 || c.CRF.Freq < 0 || c.CRF.Threads < 0 || c.CRF.MaxIter < 0 {
		return fmt.Errorf("crf_learn options must not be negative")
	}
	return nil
}
