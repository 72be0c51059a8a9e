// File path: cmd/journeyd/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/mapline/guestjourney/internal/api"
	"github.com/mapline/guestjourney/internal/common"
	"github.com/mapline/guestjourney/internal/llm"
	"github.com/mapline/guestjourney/internal/project"
	"github.com/mapline/guestjourney/internal/store"
)

func main() {
	logger := common.Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := godotenv.Load(); err != nil {
		logger.Warn("journeyd: .env file not loaded", "error", err)
	} else {
		logger.Info("journeyd: environment loaded from .env")
	}

	addr := flag.String("addr", ":8082", "listen address")
	dbPath := flag.String("db", "", "path to the SQLite catalog database (defaults to JOURNEY_DB_PATH)")
	projectID := flag.String("project", "", "project identifier (defaults to PROJECT-001)")
	company := flag.String("company", strings.TrimSpace(os.Getenv("JOURNEY_COMPANY")), "company name recorded on the project")
	flag.Parse()

	logger.Info("journeyd: startup initiated", "addr", *addr)

	cfg, err := store.LoadConfig()
	if err != nil {
		logger.Error("journeyd: store config load failed", "error", err)
		fmt.Println("store config error:", err)
		os.Exit(1)
	}
	if trimmed := strings.TrimSpace(*dbPath); trimmed != "" {
		cfg.Path = trimmed
	}
	st, err := store.OpenWithConfig(cfg)
	if err != nil {
		logger.Error("journeyd: store open failed", "path", cfg.Path, "error", err)
		fmt.Println("store error:", err)
		os.Exit(1)
	}
	defer st.Close()
	logger.Info("journeyd: catalog ready", "path", cfg.Path)

	projects := project.NewManager(st, *projectID, *company)
	created, err := projects.Seed(ctx)
	if err != nil {
		logger.Error("journeyd: project seed failed", "error", err)
		fmt.Println("seed error:", err)
		os.Exit(1)
	}
	if len(created) > 0 {
		logger.Info("journeyd: counters seeded", "prefixes", created)
	}

	provider := llm.NewProvider()
	logger.Info("journeyd: llm provider ready", "provider", provider.Name())

	server := api.NewServer(st, llm.NewGateway(provider), projects)

	logger.Info("journeyd: server listening", "addr", *addr, "health", "/healthz")
	fmt.Printf("Serving on %s\n", *addr)
	reachable := *addr
	if strings.HasPrefix(reachable, ":") {
		reachable = "localhost" + reachable
	}
	logger.Info("journeyd: verify reachability", "suggestion", fmt.Sprintf("curl http://%s/healthz", reachable))
	if err := http.ListenAndServe(*addr, server); err != nil {
		logger.Error("journeyd: server stopped", "error", err)
		fmt.Println("server stopped:", err)
	}
}
