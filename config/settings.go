package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Environment variables read by Load.
const (
	EnvAWSHost            = "AWS_HOST"
	EnvAWSBucketName      = "AWS_BUCKET_NAME"
	EnvAWSAccessKeyID     = "AWS_ACCESS_KEY_ID"
	EnvAWSSecretAccessKey = "AWS_SECRET_ACCESS_KEY"
	EnvAWSRegion          = "AWS_REGION"
)

// DefaultRegion is used when AWS_REGION is not set.
const DefaultRegion = "ru-1"

// ErrMissingEnv indicates a required environment variable is not set.
var ErrMissingEnv = errors.New("required environment variable not set")

// Settings holds the object-storage connection parameters.
type Settings struct {
	AWSHost            string `yaml:"aws_host"`
	AWSBucketName      string `yaml:"aws_bucket_name"`
	AWSAccessKeyID     string `yaml:"aws_access_key_id"`
	AWSSecretAccessKey string `yaml:"aws_secret_access_key"`
	AWSRegion          string `yaml:"aws_region"`
}

// Load reads Settings from the environment. All variables except AWS_REGION
// are required.
func Load() (*Settings, error) {
	s := &Settings{
		AWSHost:            os.Getenv(EnvAWSHost),
		AWSBucketName:      os.Getenv(EnvAWSBucketName),
		AWSAccessKeyID:     os.Getenv(EnvAWSAccessKeyID),
		AWSSecretAccessKey: os.Getenv(EnvAWSSecretAccessKey),
		AWSRegion:          os.Getenv(EnvAWSRegion),
	}
	if s.AWSRegion == "" {
		s.AWSRegion = DefaultRegion
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadFile reads and parses Settings from a YAML file.
func LoadFile(path string) (*Settings, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}
	if s.AWSRegion == "" {
		s.AWSRegion = DefaultRegion
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks that all required fields are set.
func (s *Settings) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{EnvAWSHost, s.AWSHost},
		{EnvAWSBucketName, s.AWSBucketName},
		{EnvAWSAccessKeyID, s.AWSAccessKeyID},
		{EnvAWSSecretAccessKey, s.AWSSecretAccessKey},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%w: %s", ErrMissingEnv, r.name)
		}
	}
	return nil
}
