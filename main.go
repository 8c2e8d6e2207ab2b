package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"

	"workshopmods/internal/cli"
)

func main() {
	zerolog.DurationFieldUnit = time.Second
	os.Exit(cli.Execute(cli.NewRootCommand()))
}
