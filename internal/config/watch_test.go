package config

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestManager_Watch_ReloadsOnFileWrite(t *testing.T) {
	tmpDir := t.TempDir()
	manager := NewManager(tmpDir)

	cfg := &Config{
		Host: "127.0.0.1",
		Port: 8080,
		Providers: []Provider{
			{Name: "openai", APIKey: "key-v1"},
		},
	}
	require.NoError(t, manager.Save(cfg))
	_, err := manager.Load()
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	stop := make(chan struct{})
	defer close(stop)
	go manager.Watch(logger, stop)

	// give the watcher goroutine time to register the fsnotify watch
	// before the write it needs to observe.
	time.Sleep(50 * time.Millisecond)

	// write through a second manager so the watched manager can only see
	// the new key by reloading the file.
	cfg.Providers[0].APIKey = "key-v2"
	require.NoError(t, NewManager(tmpDir).Save(cfg))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if manager.Get().Providers[0].APIKey == "key-v2" {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("config was not reloaded after file write within the deadline")
}
