package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/xelth-com/eckposgo/internal/config"
	"github.com/xelth-com/eckposgo/internal/database"
	"github.com/xelth-com/eckposgo/internal/logger"
	"github.com/xelth-com/eckposgo/internal/repository"
	"github.com/xelth-com/eckposgo/internal/services/staff"
)

// issue_token prints a bearer token for an existing staff account, for
// scripts and curl sessions.
func main() {
	username := flag.String("user", "", "staff username")
	ttl := flag.Duration("ttl", 12*time.Hour, "token lifetime")
	flag.Parse()

	if *username == "" {
		fmt.Fprintln(os.Stderr, "usage: issue_token -user <username> [-ttl 12h]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	appLog, err := logger.New("test")
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	db, err := database.Connect(cfg.Database, appLog)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	svc := staff.NewService(repository.New(db.DB, appLog), cfg.JWTSecret, appLog)
	token, err := svc.IssueFor(context.Background(), *username, *ttl)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}
	fmt.Println(token)
}
