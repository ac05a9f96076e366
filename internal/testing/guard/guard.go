// Package guard switches the process into test mode when imported.
package guard

import (
	"os"
	"sync"
)

// TestModeEnv is read by the app to relax production-only checks.
const TestModeEnv = "STOCKROOM_TEST_MODE"

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv(TestModeEnv) == "" {
			_ = os.Setenv(TestModeEnv, "1")
		}
	})
}
