// Package storage 基于 Redis 的房间与匹配队列持久化。
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/palemoky/ultimate-tictactoe/internal/game"
)

const (
	// Redis key 前缀
	roomKeyPrefix = "room:"
	matchQueueKey = "match:queue"

	// 房间数据过期时间
	roomExpiration = 2 * time.Hour
)

// PlayerData 座位上的玩家（用于 Redis 序列化）
type PlayerData struct {
	ID   string    `json:"id"`
	Role game.Mark `json:"role"`
	Name string    `json:"name,omitempty"`
}

// RoomData 房间快照（用于 Redis 序列化）
// State 直接复用对局快照的线上格式
type RoomData struct {
	Code      string           `json:"code"`
	Started   bool             `json:"started"`
	CreatedAt int64            `json:"created_at"`
	Players   []PlayerData     `json:"players"`
	State     *game.MatchState `json:"state,omitempty"`
}

// Store Redis 存储
type Store struct {
	client *redis.Client
}

// NewStore 创建 Redis 存储
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// --- 房间存储 ---

// SaveRoom 保存房间快照
func (s *Store) SaveRoom(ctx context.Context, data *RoomData) error {
	if data == nil {
		return nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("序列化房间数据失败: %w", err)
	}
	return s.client.Set(ctx, roomKeyPrefix+data.Code, jsonData, roomExpiration).Err()
}

// LoadRoom 加载房间快照，房间不存在时返回 (nil, nil)
func (s *Store) LoadRoom(ctx context.Context, code string) (*RoomData, error) {
	data, err := s.client.Get(ctx, roomKeyPrefix+code).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var roomData RoomData
	if err := json.Unmarshal(data, &roomData); err != nil {
		return nil, fmt.Errorf("反序列化房间数据失败: %w", err)
	}
	return &roomData, nil
}

// DeleteRoom 删除房间快照
func (s *Store) DeleteRoom(ctx context.Context, code string) error {
	return s.client.Del(ctx, roomKeyPrefix+code).Err()
}

// ListRoomCodes 列出所有已保存的房间号
func (s *Store) ListRoomCodes(ctx context.Context) ([]string, error) {
	keys, err := s.client.Keys(ctx, roomKeyPrefix+"*").Result()
	if err != nil {
		return nil, err
	}

	codes := make([]string, len(keys))
	for i, key := range keys {
		codes[i] = key[len(roomKeyPrefix):]
	}
	return codes, nil
}

// --- 匹配队列 ---

// EnqueueMatch 把玩家加入匹配队列尾部
func (s *Store) EnqueueMatch(ctx context.Context, playerID string) error {
	return s.client.RPush(ctx, matchQueueKey, playerID).Err()
}

// RemoveFromMatchQueue 从匹配队列移除玩家
func (s *Store) RemoveFromMatchQueue(ctx context.Context, playerID string) error {
	return s.client.LRem(ctx, matchQueueKey, 0, playerID).Err()
}

// MatchQueueLen 匹配队列长度
func (s *Store) MatchQueueLen(ctx context.Context) (int64, error) {
	return s.client.LLen(ctx, matchQueueKey).Result()
}

// PopMatchPair 从匹配队列头部弹出两名玩家
func (s *Store) PopMatchPair(ctx context.Context) ([]string, error) {
	pipe := s.client.Pipeline()
	first := pipe.LPop(ctx, matchQueueKey)
	second := pipe.LPop(ctx, matchQueueKey)

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	players := make([]string, 0, 2)
	for _, cmd := range []*redis.StringCmd{first, second} {
		if id, err := cmd.Result(); err == nil {
			players = append(players, id)
		}
	}
	return players, nil
}
