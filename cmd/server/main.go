package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/palemoky/ultimate-tictactoe/internal/config"
	"github.com/palemoky/ultimate-tictactoe/internal/logger"
	"github.com/palemoky/ultimate-tictactoe/internal/network/server"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	flag.Parse()

	logger.Init(logger.ServerDefaults())

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Warn().Err(err).Msg("加载配置文件失败，使用默认配置")
		cfg = config.Default()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	srv, err := server.NewServer(cfg, rdb)
	if err != nil {
		log.Fatal().Err(err).Msg("创建服务器失败")
	}

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Info().Msg("正在关闭服务器...")
		srv.Shutdown()
		os.Exit(0)
	}()

	if err := srv.Start(); err != nil {
		log.Fatal().Err(err).Msg("服务器启动失败")
	}
}
