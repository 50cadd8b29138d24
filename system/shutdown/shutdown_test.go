package shutdown

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureExit(t *testing.T) *int {
	code := -1
	orig := ExitFunc
	ExitFunc = func(c int) { code = c }
	t.Cleanup(func() { ExitFunc = orig })
	return &code
}

func TestShutdown_RunsHooksInReverse(t *testing.T) {
	code := captureExit(t)
	var order []string
	OnShutdown(func() { order = append(order, "db") })
	OnShutdown(func() { order = append(order, "mqtt") })

	Shutdown()

	assert.Equal(t, []string{"mqtt", "db"}, order)
	assert.Equal(t, 0, *code)

	RunHooks()
	assert.Len(t, order, 2, "hooks run once")
}

func TestShutdownWithError(t *testing.T) {
	code := captureExit(t)
	ran := false
	OnShutdown(func() { ran = true })

	ShutdownWithError(errors.New("boom"), "fatal")

	assert.True(t, ran)
	assert.Equal(t, 1, *code)
}
