package config

import (
	"sync"
	"time"
)

var (
	serverOnce   sync.Once
	serverConfig *ServerConfig
)

// ServerConfig holds HTTP server and pipeline-wide settings.
type ServerConfig struct {
	ListenAddr string
	// StorageBackend selects the blob store implementation: "s3" or "minio".
	StorageBackend string
	// MaxUploadBytes is the blob store payload ceiling. Default 10 MiB.
	MaxUploadBytes int64
	// SyncExtractTimeout bounds the synchronous extraction call.
	SyncExtractTimeout time.Duration
}

// GetServerConfig loads server settings from the environment.
func GetServerConfig() *ServerConfig {
	serverOnce.Do(func() {
		loadEnv()
		serverConfig = &ServerConfig{
			ListenAddr:         getenv("LISTEN_ADDR", ":8080"),
			StorageBackend:     getenv("STORAGE_BACKEND", "s3"),
			MaxUploadBytes:     getenvInt64("MAX_UPLOAD_BYTES", 10*1024*1024),
			SyncExtractTimeout: time.Duration(getenvInt("SYNC_EXTRACT_TIMEOUT_SECONDS", 25)) * time.Second,
		}
	})
	return serverConfig
}
