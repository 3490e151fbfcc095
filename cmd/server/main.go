package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"emmie-backend/config"
	"emmie-backend/dao"
	"emmie-backend/router"
	"emmie-backend/service/mq"
	"emmie-backend/service/naming"
)

func main() {
	if err := dao.Init(); err != nil {
		slog.Error("failed to init database", "err", err)
		os.Exit(1)
	}

	if err := naming.Init(); err != nil {
		slog.Error("failed to init chat namer", "err", err)
		os.Exit(1)
	}
	naming.NamerInstance.Run()

	if err := mq.Run(); err != nil {
		slog.Error("failed to start mq", "err", err)
		os.Exit(1)
	}
	defer mq.Shutdown()

	r := router.Register()

	srv := &http.Server{
		Addr:    ":" + config.Cfg.Server.Port,
		Handler: r,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()
	slog.Info("server started", "port", config.Cfg.Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("forced shutdown", "err", err)
	}
}
