package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sonofthenation/arcanum/configs"
	"github.com/sonofthenation/arcanum/configs/loader/dotEnvLoader"
	"github.com/sonofthenation/arcanum/internal/delivery/telegram"
	"github.com/sonofthenation/arcanum/internal/repository/cachedRepo"
	"github.com/sonofthenation/arcanum/internal/repository/dialogStates"
	"github.com/sonofthenation/arcanum/internal/repository/movieCache"
	"github.com/sonofthenation/arcanum/internal/repository/postgres"
	"github.com/sonofthenation/arcanum/internal/usecase"
	"github.com/sonofthenation/arcanum/pkg/logger"
	"github.com/sonofthenation/arcanum/pkg/prometheus"
)

func main() {

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	loader := dotEnvLoader.DotEnvLoader{}
	cfg := configs.MustLoad(loader)
	log := logger.NewLogger(cfg)

	prometheus.Init()
	http.Handle("/metrics", promhttp.Handler())
	go http.ListenAndServe(":8080", nil)
	log.Info("Метрики доступны на порту 8080")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo, err := postgres.NewRepo(cfg, log)
	if err != nil {
		log.Error("Ошибка подключения к базе", "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	if err := repo.InitSchema(ctx); err != nil {
		log.Error("Ошибка инициализации схемы", "error", err)
		os.Exit(1)
	}

	cache := movieCache.NewCache(cfg)
	defer cache.Close()

	catalog := usecase.NewCatalog(cachedRepo.NewCachedRepo(repo, cache, log))
	dialogs := dialogStates.NewRegistry()

	bot, err := telegram.NewBot(cfg, dialogs, catalog, log)
	if err != nil {
		log.Error("Ошибка создания бота", "error", err)
		os.Exit(1)
	}

	log.Info("Бот запущен")
	go bot.Run(ctx)
	<-done
	log.Info("Остановка бота")

	ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	bot.Stop(ctx)
	log.Info("Сервис остановлен")
}
