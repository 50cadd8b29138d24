package shutdown

import (
	"os"
	"sync"

	"github.com/rs/zerolog/log"
)

var (
	mu    sync.Mutex
	hooks []func()

	// ExitFunc is replaced in tests.
	ExitFunc = os.Exit
)

// OnShutdown registers fn to run before the process exits. Hooks run in
// reverse registration order.
func OnShutdown(fn func()) {
	mu.Lock()
	defer mu.Unlock()
	hooks = append(hooks, fn)
}

// RunHooks runs and clears the registered hooks.
func RunHooks() {
	mu.Lock()
	pending := hooks
	hooks = nil
	mu.Unlock()

	for i := len(pending) - 1; i >= 0; i-- {
		pending[i]()
	}
}

func Shutdown() {
	RunHooks()
	log.Info().Msg("Sprinkler controller stopped")
	ExitFunc(0)
}

func ShutdownWithError(err error, msg string) {
	log.Error().Err(err).Msg(msg)
	RunHooks()
	ExitFunc(1)
}
