package objectstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore 把对象保存为本地目录下的文件。
type FileStore struct {
	Dir string
}

var _ Store = (*FileStore)(nil)

// NewFileStore 创建本地存储，dir 为空时使用 ./exports。
func NewFileStore(dir string) *FileStore {
	if dir == "" {
		dir = "exports"
	}
	return &FileStore{Dir: dir}
}

// Path 返回 key 对应的文件路径。key 只取文件名部分，不能跳出存储目录。
func (fs *FileStore) Path(key string) (string, error) {
	name := filepath.Base(filepath.Clean("/" + key))
	if name == "/" || name == "." {
		return "", fmt.Errorf("非法的对象 key: %q", key)
	}
	return filepath.Join(fs.Dir, name), nil
}

func (fs *FileStore) Upload(_ context.Context, key string, data []byte) error {
	path, err := fs.Path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(fs.Dir, 0o755); err != nil {
		return fmt.Errorf("创建导出目录失败: %w", err)
	}
	// 先写临时文件再改名，中断时不会留下半个 WAV
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("写入 %s 失败: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("写入 %s 失败: %w", path, err)
	}
	return nil
}

func (fs *FileStore) Download(_ context.Context, key string) ([]byte, error) {
	path, err := fs.Path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("读取 %s 失败: %w", path, err)
	}
	return data, nil
}

func (fs *FileStore) Delete(_ context.Context, key string) error {
	path, err := fs.Path(key)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return err
}
