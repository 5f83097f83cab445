package objectstore_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"

	"github.com/iabetor/voxstudio/internal/config"
	"github.com/iabetor/voxstudio/internal/objectstore"
)

// startTestServer 启动带 JetStream 的内存 NATS 服务器。
func startTestServer(t *testing.T) *server.Server {
	t.Helper()

	opts := test.DefaultTestOptions
	opts.Port = -1
	opts.JetStream = true
	opts.StoreDir = t.TempDir()
	s := test.RunServer(&opts)
	t.Cleanup(s.Shutdown)
	return s
}

// exerciseStore 对任意实现跑同一组用例。
func exerciseStore(t *testing.T, store objectstore.Store) {
	ctx := context.Background()
	data := []byte("RIFF....WAVEfmt ")

	require.NoError(t, store.Upload(ctx, "a.wav", data))

	got, err := store.Download(ctx, "a.wav")
	require.NoError(t, err)
	require.Equal(t, data, got)

	// 覆盖写入
	require.NoError(t, store.Upload(ctx, "a.wav", []byte("second")))
	got, err = store.Download(ctx, "a.wav")
	require.NoError(t, err)
	require.Equal(t, []byte("second"), got)

	require.NoError(t, store.Delete(ctx, "a.wav"))
	_, err = store.Download(ctx, "a.wav")
	require.True(t, errors.Is(err, objectstore.ErrNotFound), "got %v", err)

	err = store.Delete(ctx, "missing.wav")
	require.True(t, errors.Is(err, objectstore.ErrNotFound), "got %v", err)
}

func TestFileStore(t *testing.T) {
	t.Parallel()
	exerciseStore(t, objectstore.NewFileStore(filepath.Join(t.TempDir(), "exports")))
}

func TestFileStore_KeyCannotEscapeDir(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	fs := objectstore.NewFileStore(filepath.Join(dir, "exports"))

	require.NoError(t, fs.Upload(context.Background(), "../../escape.wav", []byte("x")))
	_, err := os.Stat(filepath.Join(dir, "exports", "escape.wav"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "escape.wav"))
	require.True(t, os.IsNotExist(err))
}

func TestNatsStore(t *testing.T) {
	t.Parallel()
	s := startTestServer(t)

	nc, err := nats.Connect(s.ClientURL())
	require.NoError(t, err)
	defer nc.Close()

	js, err := nc.JetStream()
	require.NoError(t, err)

	store, err := objectstore.NewNatsStore(js, "test-audio")
	require.NoError(t, err)
	exerciseStore(t, store)

	// 再次创建同名 bucket 时绑定到已有的
	again, err := objectstore.NewNatsStore(js, "test-audio")
	require.NoError(t, err)
	require.NoError(t, again.Upload(context.Background(), "b.wav", []byte("b")))
	got, err := store.Download(context.Background(), "b.wav")
	require.NoError(t, err)
	require.Equal(t, []byte("b"), got)
}

func TestOpen(t *testing.T) {
	t.Parallel()
	s := startTestServer(t)

	store, closeFn, err := objectstore.Open(config.ExportConfig{Store: "nats", NatsURL: s.ClientURL(), Bucket: "open-test"})
	require.NoError(t, err)
	defer closeFn()
	require.IsType(t, &objectstore.NatsStore{}, store)

	local, closeLocal, err := objectstore.Open(config.ExportConfig{Store: "local", Dir: t.TempDir()})
	require.NoError(t, err)
	defer closeLocal()
	require.IsType(t, &objectstore.FileStore{}, local)

	_, _, err = objectstore.Open(config.ExportConfig{Store: "s3"})
	require.Error(t, err)
}
