package config

import (
	"os"
	"sync"
)

var (
	s3Once   sync.Once
	s3Config *S3Config
)

// S3Config holds credentials and bucket identity for the S3 blob store.
type S3Config struct {
	Region     string
	Endpoint   string
	AccessKey  string
	SecretKey  string
	BucketName string
}

// GetS3Config loads S3 settings from the environment.
func GetS3Config() *S3Config {
	s3Once.Do(func() {
		loadEnv()
		s3Config = &S3Config{
			Region:     getenv("AWS_REGION", "us-east-1"),
			Endpoint:   os.Getenv("AWS_ENDPOINT"),
			AccessKey:  os.Getenv("AWS_ACCESS_KEY"),
			SecretKey:  os.Getenv("AWS_SECRET_KEY"),
			BucketName: os.Getenv("S3_BUCKET_NAME"),
		}
	})
	return s3Config
}
