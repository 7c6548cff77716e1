package main

import (
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/rustyeddy/optionsim/cmd/optionsim/cmd"
)

func main() {
	// Optional .env for local overrides; absence is not an error.
	if err := godotenv.Load(); err == nil {
		log.Debug("loaded .env")
	}

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
