package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtly/leaguecore/internal/clock"
)

func TestSetGetRoundTrip(t *testing.T) {
	clk := clock.NewFrozen(time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC))
	c := New(true, clk)

	etag := c.Set("org1:schedule:s1", []byte(`{"games":[]}`), 5*time.Minute)
	assert.NotEmpty(t, etag)

	data, gotTag, ok := c.Get("org1:schedule:s1")
	require.True(t, ok)
	assert.Equal(t, []byte(`{"games":[]}`), data)
	assert.Equal(t, etag, gotTag)
}

func TestTTLExpiryWithFrozenClock(t *testing.T) {
	clk := clock.NewFrozen(time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC))
	c := New(true, clk)
	c.Set("k", []byte("v"), 5*time.Minute)

	clk.Advance(4 * time.Minute)
	_, _, ok := c.Get("k")
	assert.True(t, ok)

	clk.Advance(2 * time.Minute)
	_, _, ok = c.Get("k")
	assert.False(t, ok)
}

func TestDisabledCacheIsNoOp(t *testing.T) {
	c := New(false, clock.Real{})

	// Set still returns a usable ETag for conditional requests.
	etag := c.Set("k", []byte("v"), time.Minute)
	assert.NotEmpty(t, etag)

	_, _, ok := c.Get("k")
	assert.False(t, ok)
}

func TestDeletePrefix(t *testing.T) {
	clk := clock.NewFrozen(time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC))
	c := New(true, clk)
	keys := Keys{Tenant: "org1"}
	other := Keys{Tenant: "org2"}

	c.Set(keys.Schedule("s1", ""), []byte("a"), time.Hour)
	c.Set(keys.Schedule("s1", "d1"), []byte("b"), time.Hour)
	c.Set(keys.Conflicts("s1"), []byte("c"), time.Hour)
	c.Set(other.Schedule("s1", ""), []byte("d"), time.Hour)

	c.DeletePrefix(keys.SchedulePrefix("s1"))

	_, _, ok := c.Get(keys.Schedule("s1", ""))
	assert.False(t, ok)
	_, _, ok = c.Get(keys.Schedule("s1", "d1"))
	assert.False(t, ok)
	// Conflicts and the other tenant's keys survive.
	_, _, ok = c.Get(keys.Conflicts("s1"))
	assert.True(t, ok)
	_, _, ok = c.Get(other.Schedule("s1", ""))
	assert.True(t, ok)
}

func TestStatsCountsActiveAndExpired(t *testing.T) {
	clk := clock.NewFrozen(time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC))
	c := New(true, clk)
	c.Set("a", []byte("1"), time.Minute)
	c.Set("b", []byte("2"), time.Hour)
	clk.Advance(10 * time.Minute)

	stats := c.Stats()
	assert.Equal(t, 2, stats["total_keys"])
	assert.Equal(t, 1, stats["active_keys"])
	assert.Equal(t, 1, stats["expired_keys"])
}

func TestComputeETagIsStable(t *testing.T) {
	a := ComputeETag([]byte("payload"))
	b := ComputeETag([]byte("payload"))
	other := ComputeETag([]byte("different"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, other)
	assert.True(t, len(a) > 4 && a[:3] == `W/"`)
}

func TestCheckETagMatch(t *testing.T) {
	etag := ComputeETag([]byte("payload"))

	assert.False(t, CheckETagMatch("", etag))
	assert.True(t, CheckETagMatch("*", etag))
	assert.True(t, CheckETagMatch(etag, etag))
	assert.True(t, CheckETagMatch(`W/"other", `+etag, etag))
	assert.False(t, CheckETagMatch(`W/"other"`, etag))
}

func TestTenantKeyNamespace(t *testing.T) {
	k := Keys{Tenant: "org1"}

	assert.Equal(t, "org1:schedule:s1", k.Schedule("s1", ""))
	assert.Equal(t, "org1:schedule:s1:d1", k.Schedule("s1", "d1"))
	assert.Equal(t, "org1:public:standings:org1:s1:all", k.PublicStandings("s1", ""))
	assert.Equal(t, "org1:", k.All())

	// Every key for a tenant lives under its All() prefix.
	for _, key := range []string{
		k.Schedule("s1", ""), k.Conflicts("s1"),
		k.VenueAvailability("v1", "2026-03-07"), k.PublicTeam("t1"),
	} {
		assert.Contains(t, key, "org1:")
	}
}
