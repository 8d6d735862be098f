package janitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthurspriet/hawk-ai-go/internal/cache"
	"github.com/arthurspriet/hawk-ai-go/internal/domain"
	"github.com/arthurspriet/hawk-ai-go/internal/emit"
)

func TestRegisterCacheSweepRejectsMalformedSchedule(t *testing.T) {
	j := New(nil)
	err := j.RegisterCacheSweep("not a schedule", cache.New(0))
	assert.Error(t, err)
}

func TestCacheSweepRunsOnSchedule(t *testing.T) {
	j := New(nil)
	c := cache.New(0)
	key := cache.Key(cache.KindGenerate, "q")
	c.Put(key, []byte("v"), time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	require.NoError(t, j.RegisterCacheSweep("@every 10ms", c))
	j.Start()
	defer j.Stop()

	assert.Eventually(t, func() bool {
		return c.Stats().Evictions > 0
	}, time.Second, 5*time.Millisecond)
}

func TestHistoryCompactionRunsOnSchedule(t *testing.T) {
	j := New(nil)
	b := emit.NewBufferedEmitter()
	b.Emit(domain.RunEvent{RunID: "run-1", Kind: domain.EventDone})

	require.NoError(t, j.RegisterHistoryCompaction("@every 10ms", b))
	j.Start()
	defer j.Stop()

	assert.Eventually(t, func() bool {
		return len(b.History("run-1")) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestStartIsIdempotent(t *testing.T) {
	j := New(nil)
	j.Start()
	j.Start()
	j.Stop()
	j.Stop()
}
