package main

import (
	"context"
	"fmt"
	"historydash/app/api"
	"historydash/app/client/llm"
	"historydash/app/config"
	"historydash/app/service/agent"
	"historydash/app/service/engine"
	"historydash/app/service/extract"
	"historydash/app/service/graph"
	"historydash/app/service/ingest"
	"historydash/app/service/queue"
	"historydash/app/service/resolver"
	"historydash/app/service/snapshot"
	"historydash/app/service/store"
	"historydash/app/util/mylog"
	"log/slog"
	"os"
	"os/signal"

	"github.com/gofiber/fiber/v2/log"
	"github.com/samber/do"
	"golang.org/x/sync/errgroup"
)

func main() {
	di := do.New()
	defer di.Shutdown()
	defer log.Info("Waiting for services to finish...")

	mylog.Preinit()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	do.ProvideValue(di, cfg)

	if err = mylog.Init(cfg); err != nil {
		log.Fatalf("logging init failed: %v", err)
	}

	do.Provide(di, llm.NewClient)
	do.Provide(di, store.New)
	do.Provide(di, queue.New)
	do.Provide(di, engine.New)
	do.Provide(di, snapshot.New)
	do.Provide(di, graph.New)
	do.Provide(di, extract.New)
	do.Provide(di, resolver.New)
	do.Provide(di, ingest.New)
	do.Provide(di, agent.New)
	do.Provide(di, api.New)

	if cfg.Data.SeedFile != "" {
		if err = loadSeed(do.MustInvoke[*store.Service](di), cfg.Data.SeedFile); err != nil {
			log.Fatalf("seed load failed: %v", err)
		}
	}

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt)
		<-sigint

		log.Info("Shutting down...")

		cancel()
	}()

	group, groupCtx := errgroup.WithContext(appCtx)
	group.Go(func() error {
		do.MustInvoke[*engine.Service](di).Run(groupCtx)
		return nil
	})
	group.Go(func() error {
		return do.MustInvoke[*api.Server](di).Run(groupCtx)
	})

	slog.Info("Service started", "addr", cfg.HTTP.Addr, "model", cfg.LLM.Model)

	if err = group.Wait(); err != nil {
		slog.Error("Service stopped", "error", err)
	}
}

func loadSeed(storeSvc *store.Service, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}

	n, err := storeSvc.Import(data)
	if err != nil {
		return fmt.Errorf("failed to import seed file: %w", err)
	}

	slog.Info("Seed loaded", "path", path, "items", n)

	return nil
}
