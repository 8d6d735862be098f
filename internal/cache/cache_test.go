package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/arthurspriet/hawk-ai-go/internal/config"
)

func TestPutGetRoundTrip(t *testing.T) {
	c := New(0)
	key := Key(KindGenerate, "write a brief on X")
	c.Put(key, []byte("cached brief"), time.Hour)

	value, ok := c.Get(key)
	assert.True(t, ok)
	assert.Equal(t, "cached brief", string(value))

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, 1, stats.Size)
}

func TestGetMissForAbsentKey(t *testing.T) {
	c := New(0)
	_, ok := c.Get(Key(KindEmbed, "anything"))
	assert.False(t, ok)
	assert.Equal(t, int64(1), c.Stats().Misses)
}

func TestGetMissAfterTTLExpiry(t *testing.T) {
	c := New(0)
	key := Key(KindWebsearch, "query")
	c.Put(key, []byte("result"), time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get(key)
	assert.False(t, ok)
}

func TestSweepEvictsExpiredEntriesOnly(t *testing.T) {
	c := New(0)
	expiring := Key(KindRetrieve, "expiring")
	persistent := Key(KindRetrieve, "persistent")
	c.Put(expiring, []byte("v1"), time.Millisecond)
	c.Put(persistent, []byte("v2"), 0)
	time.Sleep(5 * time.Millisecond)

	c.Sweep()

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Evictions)
	assert.Equal(t, 1, stats.Size)

	_, ok := c.Get(persistent)
	assert.True(t, ok)
}

func TestKeyIsStableAndKindSensitive(t *testing.T) {
	assert.Equal(t, Key(KindGenerate, "same"), Key(KindGenerate, "same"))
	assert.NotEqual(t, Key(KindGenerate, "same"), Key(KindEmbed, "same"))
}

func TestExpiryForMapsEachKind(t *testing.T) {
	policy := config.CachePolicy{
		RetrieveExpiry:  time.Second,
		WebsearchExpiry: 2 * time.Second,
		GenerateExpiry:  3 * time.Second,
		EmbedExpiry:     4 * time.Second,
	}
	assert.Equal(t, time.Second, ExpiryFor(policy, KindRetrieve))
	assert.Equal(t, 2*time.Second, ExpiryFor(policy, KindWebsearch))
	assert.Equal(t, 3*time.Second, ExpiryFor(policy, KindGenerate))
	assert.Equal(t, 4*time.Second, ExpiryFor(policy, KindEmbed))
}
