package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"elderline/internal/app"
	"elderline/internal/db"
	"elderline/internal/question"
)

func main() {
	cfg := app.LoadConfig()

	dbConn, err := db.OpenPostgresWithConfig(context.Background(), cfg.DBDSN, db.PostgresConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.DBConnMaxLifeMins) * time.Minute,
	})
	if err != nil {
		log.Printf("database error: %v", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	bank, err := question.LoadBank()
	if err != nil {
		log.Printf("question catalogue error: %v", err)
		os.Exit(1)
	}

	r, err := app.NewRouter(cfg, dbConn, bank)
	if err != nil {
		log.Printf("router error: %v", err)
		os.Exit(1)
	}

	if cfg.AdminPassword != "" {
		if err := app.EnsureAdmin(context.Background(), dbConn, cfg); err != nil {
			log.Printf("admin bootstrap error: %v", err)
			os.Exit(1)
		}
	}

	log.Printf("elderline portal listening on %s", cfg.HTTPAddr)
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Printf("server stopped: %v", err)
		os.Exit(1)
	}
}
