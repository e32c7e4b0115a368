package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/sabg-gob/sabg-sistema/pkg/configuration"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: migrate <up|down|status|version> [args]")
		os.Exit(1)
	}

	conf := configuration.Use()
	defer conf.Unload()
	logger := conf.Logger()

	db, err := sql.Open("postgres", conf.Database.Opts)
	if err != nil {
		logger.WithError(err).Fatal("failed to open database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.WithError(err).Error("failed to close database")
		}
	}()

	if err := goose.RunContext(context.Background(), os.Args[1], db, conf.MigrationsDir, os.Args[2:]...); err != nil {
		logger.WithError(err).Fatalf("migrate %s failed", os.Args[1])
	}
}
