package main

import (
	"context"
	"fmt"
	"os"

	"github.com/andy/rechnungsbuch/internal/app"
	"github.com/andy/rechnungsbuch/internal/cli"
	"github.com/andy/rechnungsbuch/internal/config"
	"github.com/andy/rechnungsbuch/internal/logger"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run returns the process exit code so deferred closes happen before exit
func run(args []string) int {
	// Optional .env with RECHNUNGSBUCH_DB_KEY and friends
	_ = godotenv.Load()

	// If the user asked for help, avoid initializing the full app (which may prompt)
	skipInit := false
	for _, a := range args {
		if a == "-h" || a == "--help" || a == "help" {
			skipInit = true
			break
		}
	}

	if !skipInit {
		cfg, err := config.LoadDefault()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			return 1
		}

		closer, err := logger.Setup(cfg.Logging)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
			return 1
		}
		if closer != nil {
			defer closer.Close()
		}
		// The TUI owns the terminal; only a log file may receive output
		if cli.IsInteractive(args) && (cfg.Logging.Output == "" || cfg.Logging.Output == "stderr" || cfg.Logging.Output == "stdout") {
			logger.Discard()
		}

		a, err := app.NewWithConfig(context.Background(), cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to initialize app: %v\n", err)
			return 1
		}
		defer a.Close()
		cli.SetApp(a)
		log.Debug().Str("db", cfg.Database.Path).Msg("app initialized")
	}

	if err := cli.Execute(args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
