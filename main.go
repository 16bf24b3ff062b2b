package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/gin-gonic/gin"
	"github.com/jihadXYZ/croprec/config"
	"github.com/jihadXYZ/croprec/onnx"
	"github.com/jihadXYZ/croprec/server"
	ort "github.com/yalue/onnxruntime_go"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	slog.Info("Starting crop recognition API")

	if p := onnx.LibPath(); p != "" {
		ort.SetSharedLibraryPath(p)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		slog.Error("Failed to initialize ONNX Runtime environment", slog.String("error", err.Error()))
		return
	}
	defer ort.DestroyEnvironment()

	cfg := config.C()
	provider := onnx.NewRuntimeProvider(cfg.ModelDir, map[string]string{
		cfg.PrimaryModel:  cfg.ModelURL,
		cfg.FallbackModel: cfg.FallbackModelURL,
	}, cfg.Device)
	srv := server.New(provider, cfg)

	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()
	srv.Register(r)

	addr := cfg.Host + ":" + cfg.Port
	slog.Info("Listening on", slog.String("address", addr))
	go func() {
		if err := r.Run(addr); err != nil {
			slog.Error("Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
}
