package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"live-trivia-service/internal/cli"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		log.Error().Err(err).Msg("trivia exited")
		os.Exit(1)
	}
}
