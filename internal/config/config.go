package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	defaultPort        = 8080
	defaultMaxUploadMB = 32
)

type Config struct {
	Host         string
	Port         int
	ModelPath    string
	MetadataPath string
	// ONNXRuntimeLib points at onnxruntime.so/.dylib when it is not on the default search path.
	ONNXRuntimeLib string
	ScratchDir     string
	MaxUploadBytes int64
	LogLevel       string
	LogFormat      string
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoadConfig reads configuration from the environment, after loading an optional .env file.
// Relative model paths are resolved against the project root.
func LoadConfig() (*Config, error) {
	// A missing .env file is normal outside development.
	_ = godotenv.Load()

	root, err := projectRoot()
	if err != nil {
		return nil, err
	}

	port, err := getEnvInt("PORT", defaultPort)
	if err != nil {
		return nil, err
	}
	maxMB, err := getEnvInt("MAX_UPLOAD_MB", defaultMaxUploadMB)
	if err != nil {
		return nil, err
	}
	if maxMB <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_MB must be positive, got %d", maxMB)
	}

	return &Config{
		Host:           getEnv("HOST", "0.0.0.0"),
		Port:           port,
		ModelPath:      resolve(root, getEnv("MODEL_PATH", filepath.Join("models", "video_model.onnx"))),
		MetadataPath:   resolve(root, getEnv("METADATA_PATH", filepath.Join("models", "model_metadata.json"))),
		ONNXRuntimeLib: getEnv("ONNXRUNTIME_LIB", ""),
		ScratchDir:     getEnv("SCRATCH_DIR", os.TempDir()),
		MaxUploadBytes: int64(maxMB) << 20,
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
	}, nil
}

// projectRoot returns the working directory, stepping out of cmd/server when run from there.
func projectRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	if filepath.Base(wd) == "server" && filepath.Base(filepath.Dir(wd)) == "cmd" {
		wd = filepath.Join(wd, "..", "..")
	}
	return filepath.Clean(wd), nil
}

func resolve(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}
