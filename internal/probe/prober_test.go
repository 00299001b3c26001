package probe

import (
	"context"
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/khabzox/business-lead-finder/internal/config"
	"github.com/khabzox/business-lead-finder/internal/model"
)

func testProbeConfig() config.ProbeConfig {
	return config.ProbeConfig{
		TimeoutSecs:  2,
		Workers:      2,
		CacheTTLSecs: 60,
		UserAgent:    "test-agent",
		MaxRedirects: 3,
	}
}

func hostOf(t *testing.T, rawURL string) string {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	return u.Host
}

// insecureClient trusts any TLS certificate, for httptest TLS servers.
func insecureClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
}

const arganaPage = `<html><head><title>Restaurant Argana</title></head>
<body><h1>Argana</h1><p>Our menu, hours, and contact details.</p></body></html>`

func TestProbe_FindsSiteViaHTTPFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		w.Write([]byte(arganaPage))
	}))
	defer srv.Close()

	p := New(testProbeConfig(), nil, NewCache(time.Minute))
	// The https attempt against the plain-HTTP listener fails and the
	// prober falls back to http.
	result := p.Probe(context.Background(), "Café Argana", []string{hostOf(t, srv.URL)})

	assert.True(t, result.Found)
	assert.Equal(t, "http://"+hostOf(t, srv.URL), result.URL)
	assert.Equal(t, model.ProbeMethodDomainGuessing, result.Method)
	assert.Greater(t, result.ConfidenceScore, 0)
	assert.Equal(t, []string{hostOf(t, srv.URL)}, result.DomainsChecked)
}

func TestProbe_AllCandidatesFail(t *testing.T) {
	srv404 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv404.Close()

	candidates := []string{hostOf(t, srv404.URL), "127.0.0.1:1"}

	p := New(testProbeConfig(), nil, NewCache(time.Minute))
	result := p.Probe(context.Background(), "Café Argana", candidates)

	assert.False(t, result.Found)
	assert.Empty(t, result.URL)
	assert.Zero(t, result.ConfidenceScore)
	// No early exit without a match: every candidate was attempted.
	assert.Equal(t, candidates, result.DomainsChecked)
}

func TestProbe_EarlyExitOnHTTPSMatch(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(arganaPage))
	}))
	defer srv.Close()

	p := New(testProbeConfig(), nil, NewCache(time.Minute))
	p.client = insecureClient(2 * time.Second)

	candidates := []string{hostOf(t, srv.URL), "never-reached.invalid"}
	result := p.Probe(context.Background(), "Argana", candidates)

	assert.True(t, result.Found)
	assert.Equal(t, "https://"+hostOf(t, srv.URL), result.URL)
	// Early exit: the second candidate was never attempted.
	assert.Equal(t, []string{hostOf(t, srv.URL)}, result.DomainsChecked)
}

func TestProbe_DisabledEarlyExitPicksBestMatch(t *testing.T) {
	weak := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>Argana</body></html>`))
	}))
	defer weak.Close()
	strong := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(arganaPage)) // name + menu + hours + contact
	}))
	defer strong.Close()

	cfg := testProbeConfig()
	cfg.DisableEarlyExit = true
	p := New(cfg, nil, NewCache(time.Minute))
	p.client = insecureClient(2 * time.Second)

	candidates := []string{hostOf(t, weak.URL), hostOf(t, strong.URL)}
	result := p.Probe(context.Background(), "Argana", candidates)

	require.True(t, result.Found)
	assert.Equal(t, "https://"+hostOf(t, strong.URL), result.URL)
	assert.Equal(t, candidates, result.DomainsChecked)
}

func TestProbe_TieBreaksToEarlierCandidate(t *testing.T) {
	page := `<html><body>Argana menu</body></html>`
	first := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer first.Close()
	second := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer second.Close()

	cfg := testProbeConfig()
	cfg.DisableEarlyExit = true
	p := New(cfg, nil, NewCache(time.Minute))
	p.client = insecureClient(2 * time.Second)

	result := p.Probe(context.Background(), "Argana", []string{hostOf(t, first.URL), hostOf(t, second.URL)})

	require.True(t, result.Found)
	assert.Equal(t, "https://"+hostOf(t, first.URL), result.URL)
}

func TestProbe_TriesHTTPWhenHTTPSNotAccepted(t *testing.T) {
	// Seed the cache with different per-scheme responses for one domain:
	// https serves a parked page, http serves the real site. A single
	// httptest listener cannot speak both protocols, so the cache stands
	// in for the network here.
	cache := NewCache(time.Minute)
	cache.Put("argana.example", "https", fetchResult{
		OK:   true,
		Body: []byte(`<html><body>This domain for sale. Parked domain.</body></html>`),
	})
	cache.Put("argana.example", "http", fetchResult{OK: true, Body: []byte(arganaPage)})

	p := New(testProbeConfig(), nil, cache)
	result := p.Probe(context.Background(), "Argana", []string{"argana.example"})

	require.True(t, result.Found)
	assert.Equal(t, "http://argana.example", result.URL)
}

func TestProbe_ParkedPageRejected(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>This domain for sale. Parked domain. Coming soon.</body></html>`))
	}))
	defer srv.Close()

	p := New(testProbeConfig(), nil, NewCache(time.Minute))
	p.client = insecureClient(2 * time.Second)

	result := p.Probe(context.Background(), "Argana", []string{hostOf(t, srv.URL)})
	assert.False(t, result.Found)
}

func TestProbe_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(testProbeConfig(), nil, NewCache(time.Minute))
	result := p.Probe(ctx, "Argana", []string{"argana.com", "argana.ma"})

	assert.False(t, result.Found)
}

func TestProbe_ConfidenceClamped(t *testing.T) {
	assert.Equal(t, 20, confidence(1))
	assert.Equal(t, 100, confidence(5))
	assert.Equal(t, 100, confidence(7))
	assert.Equal(t, 0, confidence(0))
}

func TestProbe_RateLimiterSpacesRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	limiter := rate.NewLimiter(rate.Every(50*time.Millisecond), 1)
	p := New(testProbeConfig(), limiter, nil)

	start := time.Now()
	// Two http fetches against the same failing host; the cache is
	// disabled so both hit the limiter.
	_, _ = p.fetch(context.Background(), hostOf(t, srv.URL), "http")
	_, _ = p.fetch(context.Background(), hostOf(t, srv.URL), "http")
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestValidateProvided(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(arganaPage))
	}))
	defer srv.Close()

	p := New(testProbeConfig(), nil, NewCache(time.Minute))
	result := p.ValidateProvided(context.Background(), "Argana", srv.URL)

	assert.True(t, result.Found)
	assert.Equal(t, model.ProbeMethodProvidedURL, result.Method)
	assert.Equal(t, srv.URL, result.URL)
	assert.Equal(t, []string{hostOf(t, srv.URL)}, result.DomainsChecked)
}

func TestValidateProvided_Unreachable(t *testing.T) {
	p := New(testProbeConfig(), nil, NewCache(time.Minute))
	result := p.ValidateProvided(context.Background(), "Argana", "http://127.0.0.1:1")

	assert.False(t, result.Found)
	assert.Empty(t, result.URL)
}

func TestSplitProvided(t *testing.T) {
	tests := []struct {
		input  string
		domain string
		scheme string
	}{
		{"argana.com", "argana.com", "https"},
		{"argana.com/", "argana.com", "https"},
		{"http://argana.com", "argana.com", "http"},
		{"https://argana.ma", "argana.ma", "https"},
	}
	for _, tt := range tests {
		domain, scheme := splitProvided(tt.input)
		assert.Equal(t, tt.domain, domain)
		assert.Equal(t, tt.scheme, scheme)
	}
}
