package xconf

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type serverSection struct {
	Address string `koanf:"address"`
	Port    int    `koanf:"port"`
}

type fileConfig struct {
	Server serverSection `koanf:"server"`
	Log    struct {
		Level string `koanf:"level"`
	} `koanf:"log"`
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestNew_YAMLAndJSON(t *testing.T) {
	dir := t.TempDir()

	y := filepath.Join(dir, "xserve.yml")
	writeFile(t, y, "server:\n  address: 0.0.0.0\n  port: 8080\nlog:\n  level: debug\n")
	cfg, err := New(y)
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, cfg.Format())
	assert.Equal(t, y, cfg.Path())

	var fc fileConfig
	require.NoError(t, cfg.Unmarshal("", &fc))
	assert.Equal(t, "0.0.0.0", fc.Server.Address)
	assert.Equal(t, 8080, fc.Server.Port)
	assert.Equal(t, "debug", fc.Log.Level)

	j := filepath.Join(dir, "xserve.JSON")
	writeFile(t, j, `{"server":{"port":9000}}`)
	cfg, err = New(j)
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, cfg.Format())

	var s serverSection
	require.NoError(t, cfg.Unmarshal("server", &s))
	assert.Equal(t, 9000, s.Port)
	assert.Empty(t, s.Address)
	assert.Equal(t, 9000, cfg.Client().Int("server.port"))
}

func TestNew_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := New("")
	assert.ErrorIs(t, err, ErrEmptyPath)

	_, err = New(filepath.Join(dir, "xserve.toml"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = New(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, ErrLoadFailed)

	bad := filepath.Join(dir, "bad.json")
	writeFile(t, bad, "{not json")
	_, err = New(bad)
	assert.ErrorIs(t, err, ErrParseFailed)
}

func TestNewFromBytes(t *testing.T) {
	cfg, err := NewFromBytes([]byte("server:\n  port: 7000\n"), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Client().Int("server.port"))
	assert.ErrorIs(t, cfg.Reload(), ErrNotReloadable)
	assert.Empty(t, cfg.Path())

	empty, err := NewFromBytes(nil, FormatJSON)
	require.NoError(t, err)
	assert.Empty(t, empty.Client().Keys())

	_, err = NewFromBytes(nil, "toml")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	var n int
	cfg, err = NewFromBytes([]byte(`{"server":"x"}`), FormatJSON)
	require.NoError(t, err)
	assert.ErrorIs(t, cfg.Unmarshal("server", &n), ErrUnmarshalFailed)
}

func TestReload_KeepsOldOnFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xserve.json")
	writeFile(t, path, `{"log":{"level":"info"}}`)
	cfg, err := New(path)
	require.NoError(t, err)

	writeFile(t, path, `{"log":{"level":"warn"}}`)
	require.NoError(t, cfg.Reload())
	assert.Equal(t, "warn", cfg.Client().String("log.level"))

	writeFile(t, path, `{"log":`)
	assert.ErrorIs(t, cfg.Reload(), ErrParseFailed)
	assert.Equal(t, "warn", cfg.Client().String("log.level"))
}

func TestWatch_ReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xserve.yaml")
	writeFile(t, path, "log:\n  level: info\n")
	cfg, err := New(path)
	require.NoError(t, err)

	var level atomic.Value
	var calls atomic.Int32
	w, err := Watch(cfg, func(c Config, err error) {
		if err == nil {
			level.Store(c.Client().String("log.level"))
			calls.Add(1)
		}
	}, WithDebounce(20*time.Millisecond), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// 事件可能在 Run 开始读取前到达，循环写入直到回调生效
	require.Eventually(t, func() bool {
		writeFile(t, path, "log:\n  level: debug\n")
		return level.Load() == "debug"
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.Positive(t, calls.Load())

	// Run 返回后再关闭无副作用
	w.close()
}

func TestWatch_Errors(t *testing.T) {
	cfg, err := NewFromBytes(nil, FormatYAML)
	require.NoError(t, err)
	_, err = Watch(cfg, nil)
	assert.ErrorIs(t, err, ErrNotReloadable)
}

func TestWatch_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "xserve.yaml")
	writeFile(t, path, "a: 1\n")
	cfg, err := New(path)
	require.NoError(t, err)

	var calls atomic.Int32
	w, err := Watch(cfg, func(Config, error) { calls.Add(1) }, WithDebounce(5*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	writeFile(t, filepath.Join(dir, "other.yaml"), "b: 2\n")
	time.Sleep(100 * time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	assert.Zero(t, calls.Load())
}
