package app

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/specialistvlad/branchtalk/internal/hcl"
	"github.com/specialistvlad/branchtalk/internal/session"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// SetupAppTest creates a new app instance for system testing, loading
// configuration with the HCL loader.
func SetupAppTest(t *testing.T, appConfig *Config, factory session.SessionFactory) (*App, *SafeBuffer) {
	t.Helper()

	logBuffer := &SafeBuffer{}
	appConfig.LogLevel = "debug"
	if appConfig.ConfigPath == "" {
		appConfig.ConfigPath = filepath.Join(t.TempDir(), DefaultConfigPath)
	}
	testApp, err := NewApp(logBuffer, appConfig, hcl.NewLoader(), factory)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}

	t.Cleanup(func() {
		if os.Getenv("BRANCHTALK_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, logBuffer
}
