package event_notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/go-redis/redis/v8"
)

// 终态事件名
const (
	EventDatasetCreated = "dataset_created"
	EventDatasetFailed  = "dataset_failed"
)

// Notifier 基于Redis Pub/Sub的通知通道
// 尽力而为、至多一次投递，不持久化、不重试
type Notifier struct {
	client    *redis.Client
	keyPrefix string
}

// NewNotifier 创建通知通道
func NewNotifier(client *redis.Client, keyPrefix string) *Notifier {
	if keyPrefix == "" {
		keyPrefix = "octopub:channel:"
	}
	return &Notifier{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// envelope 推送到通道的事件封装
type envelope struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// Publish 向指定通道推送单个终态事件
// channelID为空表示请求方未订阅通知，直接跳过；推送失败只记录日志
func (n *Notifier) Publish(ctx context.Context, channelID, event string, payload interface{}) error {
	if channelID == "" {
		return nil
	}
	if n.client == nil {
		return nil
	}

	data, err := json.Marshal(envelope{Event: event, Payload: payload})
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}

	if err := n.client.Publish(ctx, n.keyPrefix+channelID, data).Err(); err != nil {
		log.Printf("[Notifier] 推送事件失败: channel=%s event=%s err=%v", channelID, event, err)
		return err
	}

	return nil
}
