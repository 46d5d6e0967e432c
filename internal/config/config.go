package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      string
	PublicURL string

	// Store picks the persistence backend: "memory" for a single-process
	// party, "postgres" for a durable one.
	Store    string
	Postgres Postgres

	OpenAIKey     string
	OpenAIBaseURL string
	Model         string
}

type Postgres struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func FromEnv() Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	c := Config{}
	c.Port = getenv("PORT", "8080")
	c.PublicURL = getenv("PUBLIC_URL", "http://localhost:8080")
	c.Store = getenv("STORE", "memory")
	c.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	c.OpenAIBaseURL = os.Getenv("OPENAI_BASE_URL")
	c.Model = getenv("AI_MODEL", "gpt-4o-mini")
	c.Postgres = Postgres{
		Host:     getenv("DB_HOST", "localhost"),
		Port:     getenv("DB_PORT", "5432"),
		User:     getenv("DB_USER", "faceoff"),
		Password: getenv("DB_PASSWORD", ""),
		DBName:   getenv("DB_NAME", "faceoff"),
		SSLMode:  getenv("DB_SSLMODE", "disable"),
	}
	return c
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
