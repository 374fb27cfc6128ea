package handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestCompositeHealthChecker(t *testing.T) {
	c := NewCompositeHealthChecker("1.0.0")
	c.AddCheck("postgres", PingCheck(pinger{}))
	c.AddOptionalCheck("redis", PingCheck(pinger{err: errors.New("refused")}))

	status := c.Check(context.Background())

	assert.True(t, status.Ready)
	assert.Equal(t, "Some checks failed: redis", status.Message)
	assert.True(t, status.Checks["postgres"].Healthy)
	assert.False(t, status.Checks["redis"].Healthy)
	assert.True(t, status.Checks["redis"].Optional)
	assert.Equal(t, "1.0.0", status.Version)
}

func TestCompositeHealthChecker_RequiredFailure(t *testing.T) {
	c := NewCompositeHealthChecker("")
	c.AddCheck("postgres", PingCheck(pinger{err: errors.New("down")}))

	status := c.Check(context.Background())
	assert.False(t, status.Ready)
	assert.Equal(t, "down", status.Checks["postgres"].Message)
}

func TestCompositeHealthChecker_Timeout(t *testing.T) {
	c := NewCompositeHealthChecker("")
	c.SetTimeout(10 * time.Millisecond)
	c.AddCheck("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	status := c.Check(context.Background())
	assert.False(t, status.Ready)
}

func TestCompositeHealthChecker_NoChecks(t *testing.T) {
	status := NewCompositeHealthChecker("").Check(context.Background())
	assert.True(t, status.Ready)
	assert.Equal(t, "All checks passed", status.Message)
}
