package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testFetcherConfig() FetcherConfig {
	cfg := DefaultFetcherConfig()
	cfg.ProductDelay = Delay{}
	cfg.ListingDelay = Delay{}
	cfg.HostInterval = 0
	cfg.Timeout = 2 * time.Second
	cfg.RetryMax = 0
	cfg.RetryBackoff = 10 * time.Millisecond
	return cfg
}

func TestFetchSendsBrowserHeaders(t *testing.T) {
	var ua, accept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		accept = r.Header.Get("Accept")
		w.Write([]byte(`<span class="price">Rs. 100</span>`))
	}))
	defer srv.Close()

	f := NewFetcher(testFetcherConfig(), zap.NewNop())
	doc, err := f.Fetch(context.Background(), srv.URL+"/item#frag", ProductPage, false)
	require.NoError(t, err)
	assert.Equal(t, "Rs. 100", doc.Find(".price").Text())
	assert.Contains(t, ua, "Mozilla/5.0")
	assert.Contains(t, accept, "text/html")
}

func TestFetchStatusErrorIsTyped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	f := NewFetcher(testFetcherConfig(), zap.NewNop())
	_, err := f.Fetch(context.Background(), srv.URL, ProductPage, false)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusForbidden, fe.StatusCode)
	assert.False(t, fe.Timeout())
}

func TestFetchTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	cfg := testFetcherConfig()
	cfg.Timeout = 50 * time.Millisecond
	f := NewFetcher(cfg, zap.NewNop())

	_, err := f.Fetch(context.Background(), srv.URL, ProductPage, false)
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.True(t, fe.Timeout())
}

func TestFetchTLSIsStrictUnlessOptedIn(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<p>ok</p>`))
	}))
	defer srv.Close()

	f := NewFetcher(testFetcherConfig(), zap.NewNop())

	_, err := f.Fetch(context.Background(), srv.URL, ProductPage, false)
	require.Error(t, err)

	doc, err := f.Fetch(context.Background(), srv.URL, ProductPage, true)
	require.NoError(t, err)
	assert.Equal(t, "ok", doc.Find("p").Text())
}

func TestFetchAppliesDelayBeforeRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	cfg := testFetcherConfig()
	cfg.ListingDelay = Delay{Min: 40 * time.Millisecond, Max: 60 * time.Millisecond}
	f := NewFetcher(cfg, zap.NewNop())

	start := time.Now()
	_, err := f.Fetch(context.Background(), srv.URL, ListingPage, false)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestFetchSerializesRequestsPerHost(t *testing.T) {
	var inFlight, maxInFlight int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			m := atomic.LoadInt32(&maxInFlight)
			if n <= m || atomic.CompareAndSwapInt32(&maxInFlight, m, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
	}))
	defer srv.Close()

	f := NewFetcher(testFetcherConfig(), zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.Fetch(context.Background(), srv.URL, ProductPage, false)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&maxInFlight))
}

func TestJitterStaysInBounds(t *testing.T) {
	cfg := testFetcherConfig()
	cfg.ProductDelay = Delay{Min: 2 * time.Second, Max: 5 * time.Second}
	f := NewFetcher(cfg, zap.NewNop())

	for i := 0; i < 200; i++ {
		d := f.jitter(ProductPage)
		assert.GreaterOrEqual(t, d, 2*time.Second)
		assert.LessOrEqual(t, d, 5*time.Second)
	}
}

func TestFetchInvalidURL(t *testing.T) {
	f := NewFetcher(testFetcherConfig(), zap.NewNop())
	_, err := f.Fetch(context.Background(), "not a url", ProductPage, false)

	var fe *FetchError
	assert.True(t, errors.As(err, &fe))
}

func TestFetchRetriesTransientStatus(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`<span class="price">Rs. 250</span>`))
	}))
	defer srv.Close()

	cfg := testFetcherConfig()
	cfg.RetryMax = 2
	f := NewFetcher(cfg, zap.NewNop())

	doc, err := f.Fetch(context.Background(), srv.URL, ProductPage, false)
	require.NoError(t, err)
	assert.Equal(t, "Rs. 250", doc.Find(".price").Text())
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestFetchGivesUpAfterRetryMax(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	cfg := testFetcherConfig()
	cfg.RetryMax = 2
	f := NewFetcher(cfg, zap.NewNop())

	_, err := f.Fetch(context.Background(), srv.URL, ProductPage, false)
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusTooManyRequests, fe.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	cfg := testFetcherConfig()
	cfg.RetryMax = 2
	f := NewFetcher(cfg, zap.NewNop())

	_, err := f.Fetch(context.Background(), srv.URL, ProductPage, false)
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestFetchRetriesTimeout(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			select {
			case <-time.After(time.Second):
			case <-r.Context().Done():
			}
			return
		}
		w.Write([]byte(`<p>ok</p>`))
	}))
	defer srv.Close()

	cfg := testFetcherConfig()
	cfg.Timeout = 50 * time.Millisecond
	cfg.RetryMax = 1
	f := NewFetcher(cfg, zap.NewNop())

	doc, err := f.Fetch(context.Background(), srv.URL, ProductPage, false)
	require.NoError(t, err)
	assert.Equal(t, "ok", doc.Find("p").Text())
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		header string
		want   time.Duration
	}{
		{"", 0},
		{"3", 3 * time.Second},
		{"abc", 0},
		{"-5", 0},
		{"3600", maxRetryAfter},
		{now.Add(10 * time.Second).Format(http.TimeFormat), 10 * time.Second},
		{now.Add(-time.Hour).Format(http.TimeFormat), 0},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, parseRetryAfter(tt.header, now))
		})
	}
}

func TestBackoffGrowsAndHonorsRetryAfter(t *testing.T) {
	cfg := testFetcherConfig()
	cfg.RetryBackoff = 100 * time.Millisecond
	f := NewFetcher(cfg, zap.NewNop())

	first := f.backoff(1, 0)
	assert.GreaterOrEqual(t, first, 100*time.Millisecond)
	assert.LessOrEqual(t, first, 150*time.Millisecond)

	second := f.backoff(2, 0)
	assert.GreaterOrEqual(t, second, 400*time.Millisecond)

	assert.Equal(t, 5*time.Second, f.backoff(1, 5*time.Second))
}

func TestFetchWaitingForHostHonorsContext(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	f := NewFetcher(testFetcherConfig(), zap.NewNop())

	done := make(chan struct{})
	defer func() {
		close(release)
		<-done
	}()
	go func() {
		defer close(done)
		_, _ = f.Fetch(context.Background(), srv.URL+"/first", ProductPage, false)
	}()
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := f.Fetch(ctx, srv.URL+"/second", ProductPage, false)
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}
