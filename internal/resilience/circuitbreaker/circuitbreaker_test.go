package circuitbreaker

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		Name:             "test-circuit",
		MaxRequests:      3,
		Interval:         10 * time.Second,
		Timeout:          20 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

func TestNew(t *testing.T) {
	cb := New(testConfig(), nil)

	require.NotNil(t, cb)
	assert.Equal(t, "test-circuit", cb.Name())
	assert.Equal(t, gobreaker.StateClosed, cb.State())
	assert.False(t, cb.IsOpen())
}

func TestCircuitBreaker_Execute(t *testing.T) {
	cb := New(testConfig(), nil)

	result, err := cb.Execute(func() (interface{}, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", result)

	testErr := errors.New("boom")
	result, err = cb.Execute(func() (interface{}, error) { return nil, testErr })
	assert.ErrorIs(t, err, testErr)
	assert.Nil(t, result)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := New(testConfig(), nil)
	testErr := errors.New("boom")

	for i := 0; i < 5; i++ {
		_, _ = cb.Execute(func() (interface{}, error) { return nil, testErr })
	}

	assert.True(t, cb.IsOpen())

	called := false
	_, err := cb.Execute(func() (interface{}, error) {
		called = true
		return nil, nil
	})
	assert.False(t, called)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.True(t, IsRejected(err))
}

func TestCircuitBreaker_StaysClosedBelowMinRequests(t *testing.T) {
	cb := New(testConfig(), nil)
	testErr := errors.New("boom")

	for i := 0; i < 4; i++ {
		_, _ = cb.Execute(func() (interface{}, error) { return nil, testErr })
	}

	assert.False(t, cb.IsOpen())
}

func TestFeedFetchConfig_TripsAfterTwoFailures(t *testing.T) {
	cb := New(FeedFetchConfig("feeds.example.com"), nil)
	assert.Equal(t, "feed:feeds.example.com", cb.Name())

	testErr := errors.New("connection refused")
	_, _ = cb.Execute(func() (interface{}, error) { return nil, testErr })
	assert.False(t, cb.IsOpen())
	_, _ = cb.Execute(func() (interface{}, error) { return nil, testErr })
	assert.True(t, cb.IsOpen())
}

func TestFeedFetchConfig_SuccessKeepsClosed(t *testing.T) {
	cb := New(FeedFetchConfig("feeds.example.com"), nil)

	_, _ = cb.Execute(func() (interface{}, error) { return nil, nil })
	_, _ = cb.Execute(func() (interface{}, error) { return nil, errors.New("timeout") })

	assert.False(t, cb.IsOpen())
}

func TestIsRejected(t *testing.T) {
	assert.True(t, IsRejected(gobreaker.ErrOpenState))
	assert.True(t, IsRejected(gobreaker.ErrTooManyRequests))
	assert.False(t, IsRejected(errors.New("other")))
	assert.False(t, IsRejected(nil))
}

func TestHostSet_For(t *testing.T) {
	set := NewHostSet(nil, nil)

	bbcWorld := set.For("http://feeds.bbci.co.uk/news/world/rss.xml")
	bbcEurope := set.For("http://FEEDS.bbci.co.uk/news/world/europe/rss.xml")
	guardian := set.For("https://www.theguardian.com/world/rss")

	assert.Same(t, bbcWorld, bbcEurope)
	assert.NotSame(t, bbcWorld, guardian)
	assert.Equal(t, 2, set.Len())
	assert.Equal(t, "feed:feeds.bbci.co.uk", bbcWorld.Name())
}

func TestHostSet_IsolatesHosts(t *testing.T) {
	set := NewHostSet(nil, nil)
	failing := set.For("https://down.example.com/a.xml")
	for i := 0; i < 2; i++ {
		_, _ = failing.Execute(func() (interface{}, error) { return nil, errors.New("down") })
	}

	assert.True(t, set.For("https://down.example.com/b.xml").IsOpen())
	assert.False(t, set.For("https://up.example.com/feed").IsOpen())
}

func TestHostSet_CustomConfig(t *testing.T) {
	set := NewHostSet(func(host string) Config {
		cfg := FeedFetchConfig(host)
		cfg.Name = "custom-" + host
		return cfg
	}, nil)

	cb := set.For("https://example.com/rss")

	assert.Equal(t, "custom-example.com", cb.Name())
}

func TestHostSet_ConcurrentAccess(t *testing.T) {
	set := NewHostSet(nil, nil)

	var wg sync.WaitGroup
	results := make([]*CircuitBreaker, 20)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = set.For("https://example.com/rss")
		}(i)
	}
	wg.Wait()

	for _, cb := range results {
		assert.Same(t, results[0], cb)
	}
	assert.Equal(t, 1, set.Len())
}
