package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"time"

	_ "github.com/lib/pq"
	log "github.com/sirupsen/logrus"

	"github.com/vncsmyrnk/ballot/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/ballot/internal/config"
)

func main() {
	all := flag.Bool("all", false, "apply every up migration")
	if !config.LoadEnv() {
		log.Println("No .env file found")
	}

	cfg, err := config.FromEnv(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	if !*all && flag.NArg() < 1 {
		log.Fatal("a migration name (e.g. create_voters.up) or -all is required.")
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if *all {
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Fatal(err)
		}
		log.Println("Migrations executed successfully.")
		return
	}

	name, err := postgres.MigrateNamed(ctx, db, flag.Arg(0))
	if err != nil {
		log.Fatalf("Failed to execute migration: %v", err)
	}
	log.Printf("Migration file %s executed successfully.", name)
}
