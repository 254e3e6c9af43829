package config

import (
	"os"
	"sync"
)

var (
	textractOnce   sync.Once
	textractConfig *TextractConfig
)

// TextractConfig holds the extraction service identity. When no
// credentials are present extraction is considered unconfigured and the
// ingestion pipeline skips it instead of failing.
type TextractConfig struct {
	Region    string
	AccessKey string
	SecretKey string
	// OutputBucket and OutputPrefix name where asynchronous jobs write
	// their result artifacts.
	OutputBucket string
	OutputPrefix string
}

// Configured reports whether an extraction processor identity is
// available at all.
func (c *TextractConfig) Configured() bool {
	return c.AccessKey != "" && c.SecretKey != ""
}

// GetTextractConfig loads extraction service settings from the environment.
func GetTextractConfig() *TextractConfig {
	textractOnce.Do(func() {
		loadEnv()
		textractConfig = &TextractConfig{
			Region:       getenv("AWS_REGION", "us-east-1"),
			AccessKey:    os.Getenv("AWS_ACCESS_KEY"),
			SecretKey:    os.Getenv("AWS_SECRET_KEY"),
			OutputBucket: getenv("TEXTRACT_OUTPUT_BUCKET", os.Getenv("S3_BUCKET_NAME")),
			OutputPrefix: getenv("TEXTRACT_OUTPUT_PREFIX", "textract-output"),
		}
	})
	return textractConfig
}
