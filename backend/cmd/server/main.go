package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adapterPhysics "cloth-sim/backend/internal/adapter/out/physics"
	"cloth-sim/backend/internal/config"
	"cloth-sim/backend/internal/core/domain/service"
	"cloth-sim/backend/internal/game"
	"cloth-sim/backend/internal/physics"
	"cloth-sim/backend/internal/telemetry"
	"cloth-sim/backend/internal/transport/ws"
)

func main() {
	configPath := flag.String("config", "", "путь к файлу конфигурации (gcfg)")
	addr := flag.String("addr", "", "адрес HTTP сервера, переопределяет [Server] Addr")
	staticDir := flag.String("static", "", "каталог со статическими файлами клиента")
	printExample := flag.Bool("example-config", false, "вывести пример конфигурации и выйти")
	flag.Parse()

	if *printExample {
		os.Stdout.WriteString(config.ExampleFile + "\n")
		return
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Ошибка загрузки конфигурации: %v", err)
		}
		cfg = loaded
	}

	serverCfg, err := cfg.Server.Server()
	if err != nil {
		log.Fatalf("Неверная конфигурация сервера: %v", err)
	}
	if *addr != "" {
		serverCfg.Addr = *addr
	}

	physics.SetPhysicsConfig(cfg.Physics.PhysicsConfig())

	logger := log.Default()

	driver, err := service.NewFrameDriver(cfg.Cloth, adapterPhysics.NewSolverWorldFactory(logger), logger)
	if err != nil {
		log.Fatalf("Ошибка создания симуляции: %v", err)
	}

	tm := telemetry.NewTelemetryManager(600, serverCfg.TelemetryInterval, logger)

	wsServer := ws.NewWSServer(driver, logger)
	wsServer.SetPingInterval(serverCfg.PingInterval)

	cloth := game.NewClothSystem(driver, tm, logger)
	ticker := game.NewGameTicker(serverCfg.TickRate, logger)
	ticker.RegisterSystem(cloth)
	ticker.RegisterSystem(game.NewNetworkSyncSystem(cloth, wsServer, 0, logger))
	ticker.RegisterSystem(game.NewTelemetrySystem(tm))

	mux := http.NewServeMux()
	wsServer.Register(mux)
	mux.HandleFunc("/telemetry", func(w http.ResponseWriter, r *http.Request) {
		data, err := tm.GetTelemetryJSON()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(data))
	})
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(ticker.GetStats()); err != nil {
			log.Printf("[Server] Ошибка отправки статистики: %v", err)
		}
	})
	if *staticDir != "" {
		if _, err := os.Stat(*staticDir); os.IsNotExist(err) {
			log.Printf("[Server] Предупреждение: каталог %s не существует", *staticDir)
		}
		mux.Handle("/", http.FileServer(http.Dir(*staticDir)))
		log.Printf("[Server] Статические файлы из: %s", *staticDir)
	}

	httpServer := &http.Server{
		Addr:    serverCfg.Addr,
		Handler: mux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := ticker.Start(); err != nil {
		log.Fatalf("Ошибка запуска тикера: %v", err)
	}

	go func() {
		log.Printf("[Server] Запуск на %s", serverCfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Ошибка HTTP сервера: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("[Server] Остановка...")

	ticker.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("[Server] Ошибка остановки HTTP сервера: %v", err)
	}
}
