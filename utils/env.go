package utils

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// LoadEnv loads variables from a .env file when one exists. A missing
// file is fine; the environment may already carry everything needed.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("ℹ️  No .env file found, continuing...")
	}
}

// DatabaseURL returns the configured connection string after loading the
// environment, or empty when nothing is set.
func DatabaseURL() string {
	LoadEnv()
	return os.Getenv("DATABASE_URL")
}
