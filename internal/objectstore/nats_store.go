package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NatsStore 使用 NATS JetStream 对象存储保存导出音频，
// 便于多台机器共享历史记录里的音频。
type NatsStore struct {
	bucket string
	store  nats.ObjectStore
}

var _ Store = (*NatsStore)(nil)

// NewNatsStore 创建或绑定名为 bucket 的对象存储。
func NewNatsStore(js nats.JetStreamContext, bucket string) (*NatsStore, error) {
	store, err := js.CreateObjectStore(&nats.ObjectStoreConfig{
		Bucket:      bucket,
		Description: "voxstudio 导出音频",
		Storage:     nats.FileStorage,
		Replicas:    1,
	})
	if err != nil {
		if !errors.Is(err, jetstream.ErrBucketExists) && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
			return nil, fmt.Errorf("创建对象存储 %s 失败: %w", bucket, err)
		}
		// 已存在则直接绑定
		store, err = js.ObjectStore(bucket)
		if err != nil {
			return nil, fmt.Errorf("绑定对象存储 %s 失败: %w", bucket, err)
		}
	}
	return &NatsStore{bucket: bucket, store: store}, nil
}

func (n *NatsStore) Upload(ctx context.Context, key string, data []byte) error {
	_, err := n.store.Put(&nats.ObjectMeta{
		Name:    key,
		Headers: nats.Header{"Content-Type": []string{"audio/wav"}},
	}, bytes.NewReader(data), nats.Context(ctx))
	if err != nil {
		return fmt.Errorf("上传 %s 到 %s 失败: %w", key, n.bucket, err)
	}
	return nil
}

func (n *NatsStore) Download(ctx context.Context, key string) ([]byte, error) {
	obj, err := n.store.Get(key, nats.Context(ctx))
	if errors.Is(err, nats.ErrObjectNotFound) {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("从 %s 获取 %s 失败: %w", n.bucket, key, err)
	}

	data, readErr := io.ReadAll(obj)
	closeErr := obj.Close()
	if readErr != nil {
		return nil, fmt.Errorf("读取 %s 失败: %w", key, readErr)
	}
	if closeErr != nil {
		return data, fmt.Errorf("关闭 %s 失败: %w", key, closeErr)
	}
	return data, nil
}

func (n *NatsStore) Delete(_ context.Context, key string) error {
	err := n.store.Delete(key)
	if errors.Is(err, nats.ErrObjectNotFound) {
		return fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("从 %s 删除 %s 失败: %w", n.bucket, key, err)
	}
	return nil
}
