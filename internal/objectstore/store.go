// Package objectstore 保存导出的 WAV 音频，支持本地目录和 NATS JetStream 对象存储。
package objectstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/iabetor/voxstudio/internal/config"
	"github.com/iabetor/voxstudio/internal/logger"
)

// ErrNotFound 表示对象不存在。
var ErrNotFound = errors.New("对象不存在")

// Store 是导出音频的存储。
type Store interface {
	Upload(ctx context.Context, key string, data []byte) error
	Download(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// Open 按配置打开存储，返回的 close 函数用于释放连接。
func Open(cfg config.ExportConfig) (Store, func(), error) {
	switch cfg.Store {
	case "", "local":
		return NewFileStore(cfg.Dir), func() {}, nil
	case "nats":
		nc, err := nats.Connect(cfg.NatsURL, nats.Name("voxstudio"))
		if err != nil {
			return nil, nil, fmt.Errorf("连接 NATS %s 失败: %w", cfg.NatsURL, err)
		}
		js, err := nc.JetStream()
		if err != nil {
			nc.Close()
			return nil, nil, fmt.Errorf("获取 JetStream 失败: %w", err)
		}
		store, err := NewNatsStore(js, cfg.Bucket)
		if err != nil {
			nc.Close()
			return nil, nil, err
		}
		logger.Debugf("[objectstore] 使用 NATS 对象存储 %s/%s", cfg.NatsURL, cfg.Bucket)
		return store, nc.Close, nil
	}
	return nil, nil, fmt.Errorf("未知的导出存储: %s", cfg.Store)
}
