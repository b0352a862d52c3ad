// Package config 加载客户端与服务端共用的 YAML 配置。
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 顶层配置
type Config struct {
	Server ServerConfig `yaml:"server"`
	Redis  RedisConfig  `yaml:"redis"`
	Auth   AuthConfig   `yaml:"auth"`
	Game   GameConfig   `yaml:"game"`
	Client ClientConfig `yaml:"client"`
}

// ServerConfig WebSocket 服务器配置
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	MaxConnections int    `yaml:"max_connections"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// AuthConfig 认证配置
// 凭证是外部身份源颁发的不透明令牌；参考实现支持两种校验方式：
// 固定令牌列表（tokens）或开发模式放行所有非空令牌（allow_anonymous）
type AuthConfig struct {
	AllowAnonymous bool     `yaml:"allow_anonymous"`
	Tokens         []string `yaml:"tokens"`
}

// GameConfig 对局配置
type GameConfig struct {
	RoomTimeout int `yaml:"room_timeout"` // 空闲房间回收超时（分钟）
}

// ClientConfig 客户端配置
type ClientConfig struct {
	ServerURL string `yaml:"server_url"`
	Token     string `yaml:"token"`     // 留空则从 TokenEnv 指定的环境变量读取
	TokenEnv  string `yaml:"token_env"` // 默认 UTTT_TOKEN
}

// RoomTimeoutDuration 返回空闲房间回收超时时长
func (c *GameConfig) RoomTimeoutDuration() time.Duration {
	return time.Duration(c.RoomTimeout) * time.Minute
}

// Load 加载配置文件
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Default 返回默认配置
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 1790
	}
	if c.Server.MaxConnections == 0 {
		c.Server.MaxConnections = 1024
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Game.RoomTimeout == 0 {
		c.Game.RoomTimeout = 30
	}
	if c.Client.ServerURL == "" {
		c.Client.ServerURL = "ws://localhost:1790/ws"
	}
	if c.Client.TokenEnv == "" {
		c.Client.TokenEnv = "UTTT_TOKEN"
	}
}
