package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"fjacquet/finledger/cmd/categorize"
	"fjacquet/finledger/cmd/root"
	"fjacquet/finledger/cmd/rules"
	"fjacquet/finledger/cmd/run"
	"fjacquet/finledger/cmd/validate"
	"fjacquet/finledger/internal/logging"
)

func init() {
	// Environment first, so LOG_LEVEL from .env applies before any logging.
	loadEnvSilently()
	logging.SetAllLogLevels(logLevelFromEnv())

	root.Init()
	root.Cmd.AddCommand(run.Cmd)
	root.Cmd.AddCommand(validate.Cmd)
	root.Cmd.AddCommand(categorize.Cmd)
	root.Cmd.AddCommand(rules.Cmd)
}

// loadEnvSilently loads .env from the working or parent directory without
// logging anything.
func loadEnvSilently() {
	for _, envFile := range []string{".env", "../.env"} {
		if _, err := os.Stat(envFile); err == nil {
			_ = godotenv.Load(envFile)
			return
		}
	}
}

func logLevelFromEnv() logrus.Level {
	level, err := logrus.ParseLevel(strings.ToLower(os.Getenv("LOG_LEVEL")))
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		if !errors.Is(err, validate.ErrValidationFailed) {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}
