package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port          string
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPass     string
	Neo4jDatabase string
	TEIURL        string
	MaxFileSize   int64
	Workers       int
}

func Load() *Config {
	return &Config{
		Port:          getEnv("SYNAPTIC_PORT", "8000"),
		Neo4jURI:      getEnv("SYNAPTIC_NEO4J_URI", ""),
		Neo4jUser:     getEnv("SYNAPTIC_NEO4J_USER", "neo4j"),
		Neo4jPass:     getEnv("SYNAPTIC_NEO4J_PASSWORD", ""),
		Neo4jDatabase: getEnv("SYNAPTIC_NEO4J_DATABASE", "neo4j"),
		TEIURL:        getEnv("SYNAPTIC_TEI_URL", "http://localhost:8080"),
		MaxFileSize:   getEnvInt64("SYNAPTIC_MAX_FILE_SIZE_BYTES", 1<<20),
		Workers:       int(getEnvInt64("SYNAPTIC_INGEST_WORKERS", 4)),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}
