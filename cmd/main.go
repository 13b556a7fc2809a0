package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fathima-sithara/account-service/internal/bootstrap"
	"github.com/fathima-sithara/account-service/internal/server"
)

func main() {
	appCtx, cleanup, err := bootstrap.Init("config.yaml")
	if err != nil {
		log.Fatalf("failed to initialize: %v", err)
	}

	app := server.New(appCtx.Config, appCtx.Handler, appCtx.Tokens, appCtx.Sugar)

	go func() {
		listenAddr := fmt.Sprintf(":%d", appCtx.Config.App.Port)
		appCtx.Sugar.Infof("Server listening on %s", listenAddr)
		if err := app.Listen(listenAddr); err != nil {
			appCtx.Sugar.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	appCtx.Sugar.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		appCtx.Sugar.Errorf("Server shutdown error: %v", err)
	}
	cleanup(ctx)
	appCtx.Sugar.Info("Graceful shutdown complete")
}
