package main

import (
	"io"
	"log"
	"os"
	"testing"

	"github.com/joho/godotenv"
)

// TestMain runs before all tests and loads .env if available
func TestMain(m *testing.M) {
	// Try to load .env file - ignore error if it doesn't exist (CI environment)
	_ = godotenv.Load()

	// Command tests run offline: no provider calls, no database writes.
	for _, key := range []string{"DATABASE_URL", "GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY"} {
		_ = os.Unsetenv(key)
	}
	log.SetOutput(io.Discard)

	os.Exit(m.Run())
}
