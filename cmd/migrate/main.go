// migrate runs DB migrations from embedded SQL; use with go run ./cmd/migrate.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"usersvc/cmd/internal/app"
	dbmigrate "usersvc/cmd/internal/db/migrate"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	flag.Parse()

	cfg := app.LoadConfig()
	if cfg.DatabaseURL == "" {
		fmt.Fprintln(os.Stderr, "USERSVC_DATABASE_URL is not set")
		os.Exit(1)
	}

	if err := dbmigrate.Run(cfg.DatabaseURL, *direction); err != nil {
		if errors.Is(err, dbmigrate.ErrNoChange) {
			// Already at target version; success.
			return
		}
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}
