package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/palemoky/ultimate-tictactoe/internal/config"
	"github.com/palemoky/ultimate-tictactoe/internal/logger"
	netclient "github.com/palemoky/ultimate-tictactoe/internal/network/client"
	"github.com/palemoky/ultimate-tictactoe/internal/ui"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	serverURL := flag.String("server", "", "服务器地址（覆盖配置文件）")
	token := flag.String("token", "", "登录凭证（覆盖配置文件与环境变量）")
	local := flag.Bool("local", false, "本地双人对局，不连接服务器")
	flag.Parse()

	logger.Init(logger.ClientDefaults())

	var model tea.Model
	if *local {
		model = ui.NewLocalModel()
	} else {
		cfg, err := config.Load(*configPath)
		if err != nil {
			cfg = config.Default()
		}

		url := cfg.Client.ServerURL
		if *serverURL != "" {
			url = fmt.Sprintf("ws://%s/ws", *serverURL)
		}
		model = ui.NewOnlineModel(url, tokenProvider(*token, cfg))
	}

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "启动客户端时出错: %v\n", err)
		os.Exit(1)
	}
}

// tokenProvider 按 命令行 > 配置文件 > 环境变量 的顺序取凭证
func tokenProvider(flagToken string, cfg *config.Config) netclient.TokenProvider {
	if flagToken != "" {
		return netclient.StaticToken(flagToken)
	}
	if cfg.Client.Token != "" {
		return netclient.StaticToken(cfg.Client.Token)
	}
	env := cfg.Client.TokenEnv
	return netclient.TokenFunc(func(context.Context) (string, error) { return os.Getenv(env), nil })
}
