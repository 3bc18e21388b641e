package main

import (
	"context"
	"log/slog"
	"moovzmatch/app/client/embedding"
	"moovzmatch/app/client/mongodb"
	"moovzmatch/app/client/rekognition"
	"moovzmatch/app/client/speechkit"
	"moovzmatch/app/config"
	"moovzmatch/app/server"
	"moovzmatch/app/service/pipeline"
	"moovzmatch/app/util/mylog"
	"os"
	"os/signal"

	"github.com/gofiber/fiber/v2/log"
	"github.com/samber/do"
)

func main() {
	di := do.New()
	defer di.Shutdown()
	defer log.Info("Waiting for services to finish...")

	mylog.Preinit()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	do.ProvideValue(di, appCtx)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	do.ProvideValue(di, cfg)

	if err = mylog.Init(cfg); err != nil {
		log.Fatalf("logging init failed: %v", err)
	}

	do.Provide(di, embedding.NewClient)
	do.Provide(di, mongodb.NewClient)
	do.Provide(di, speechkit.NewClient)
	do.Provide(di, rekognition.NewClient)
	do.Provide(di, pipeline.New)
	do.Provide(di, server.New)

	slog.Info("Service started")

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt)
		<-sigint

		log.Info("Shutting down...")

		cancel()
	}()

	go func() {
		if err := do.MustInvoke[*server.Server](di).Run(); err != nil {
			slog.Error("Server stopped", "error", err)
			cancel()
		}
	}()

	<-appCtx.Done()
}
