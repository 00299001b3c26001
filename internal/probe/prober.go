// Package probe issues bounded, rate-limited HTTP probes against candidate
// domains and classifies responses as business sites or parked pages.
package probe

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/khabzox/business-lead-finder/internal/config"
	"github.com/khabzox/business-lead-finder/internal/model"
)

// maxBodyBytes bounds how much of a response body is read for
// classification.
const maxBodyBytes = 512 * 1024

// schemes are tried in order for every candidate; https wins ties.
var schemes = []string{"https", "http"}

// fetchResult is the network fact remembered per (domain, scheme): whether
// the host served a 2xx page and what it contained. Classification happens
// per business on top of it, so cached bodies are reusable across records.
type fetchResult struct {
	OK   bool
	Body []byte
}

// Prober probes candidate domains for a business website. The rate limiter
// and cache are caller-supplied so their lifetime is explicit: both are
// scoped to a pipeline run, and concurrent runs can use separate instances.
type Prober struct {
	cfg     config.ProbeConfig
	client  *http.Client
	limiter *rate.Limiter
	cache   *Cache
}

// New creates a Prober. limiter enforces the minimum inter-request spacing
// shared across all workers; cache may be nil to disable result caching.
func New(cfg config.ProbeConfig, limiter *rate.Limiter, cache *Cache) *Prober {
	client := &http.Client{
		Timeout: cfg.Timeout(),
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= cfg.MaxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
	return &Prober{
		cfg:     cfg,
		client:  client,
		limiter: limiter,
		cache:   cache,
	}
}

// Probe tries every candidate domain in order, https before http, and
// returns the best-classified match. Network failures of any kind count as
// "candidate not found" and never abort the probe; only candidate
// exhaustion, an early-exit match, or context cancellation ends it.
// DomainsChecked always lists every candidate attempted, in generation
// order, including failures.
func (p *Prober) Probe(ctx context.Context, name string, candidates []string) model.WebsiteProbeResult {
	result := model.WebsiteProbeResult{
		Method:         model.ProbeMethodDomainGuessing,
		DomainsChecked: make([]string, 0, len(candidates)),
	}

	type match struct {
		url   string
		score int
	}
	var best *match

	log := zap.L().With(zap.String("business", name))

probing:
	for _, domain := range candidates {
		if ctx.Err() != nil {
			break
		}
		result.DomainsChecked = append(result.DomainsChecked, domain)

		for _, scheme := range schemes {
			fetched, err := p.fetch(ctx, domain, scheme)
			if err != nil {
				// Cancellation abandons the rest; anything else is just a
				// failed candidate.
				if ctx.Err() != nil {
					break probing
				}
				log.Debug("probe: attempt failed",
					zap.String("domain", domain),
					zap.String("scheme", scheme),
					zap.Error(err),
				)
				continue
			}
			if !fetched.OK {
				continue
			}

			cls := classify(name, fetched.Body)
			log.Debug("probe: response classified",
				zap.String("domain", domain),
				zap.String("scheme", scheme),
				zap.Int("business_score", cls.BusinessScore),
				zap.Int("parking_score", cls.ParkingScore),
				zap.Bool("real", cls.Real()),
			)

			if !cls.Real() {
				// Not accepted on this scheme; the http fallback still gets
				// its turn before the candidate is written off.
				continue
			}
			if best == nil || cls.BusinessScore > best.score {
				best = &match{url: scheme + "://" + domain, score: cls.BusinessScore}
			}
			if scheme == "https" && !p.cfg.DisableEarlyExit {
				break probing
			}
			// A real match settles the candidate; no need to re-read the
			// same site over the other scheme.
			continue probing
		}
	}

	if best != nil {
		result.Found = true
		result.URL = best.url
		result.ConfidenceScore = confidence(best.score)
		log.Info("probe: website found",
			zap.String("url", best.url),
			zap.Int("confidence", result.ConfidenceScore),
			zap.Int("candidates_checked", len(result.DomainsChecked)),
		)
	} else {
		log.Info("probe: no website found",
			zap.Int("candidates_checked", len(result.DomainsChecked)),
		)
	}
	return result
}

// ValidateProvided checks a website URL already attached to the record and
// classifies its content. The URL may lack a scheme ("argana.com").
func (p *Prober) ValidateProvided(ctx context.Context, name, website string) model.WebsiteProbeResult {
	domain, scheme := splitProvided(website)
	result := model.WebsiteProbeResult{
		Method:         model.ProbeMethodProvidedURL,
		DomainsChecked: []string{domain},
	}

	try := []string{scheme}
	if scheme == "https" {
		try = schemes
	}
	for _, s := range try {
		fetched, err := p.fetch(ctx, domain, s)
		if err != nil || !fetched.OK {
			continue
		}
		if cls := classify(name, fetched.Body); cls.Real() {
			result.Found = true
			result.URL = s + "://" + domain
			result.ConfidenceScore = confidence(cls.BusinessScore)
		}
		break
	}
	return result
}

// fetch performs one rate-limited GET against scheme://domain, consulting
// the cache first. Only transport-level failures return an error; a non-2xx
// status is a completed fetch with OK=false.
func (p *Prober) fetch(ctx context.Context, domain, scheme string) (fetchResult, error) {
	if cached, ok := p.cache.Get(domain, scheme); ok {
		return cached, nil
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return fetchResult{}, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, scheme+"://"+domain, nil)
	if err != nil {
		return fetchResult{}, err
	}
	req.Header.Set("User-Agent", p.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := p.client.Do(req)
	if err != nil {
		p.cache.Put(domain, scheme, fetchResult{})
		return fetchResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		outcome := fetchResult{}
		p.cache.Put(domain, scheme, outcome)
		return outcome, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fetchResult{}, err
	}

	outcome := fetchResult{OK: true, Body: body}
	p.cache.Put(domain, scheme, outcome)
	return outcome, nil
}

func confidence(businessScore int) int {
	c := businessScore * 20
	if c > 100 {
		c = 100
	}
	return c
}

// splitProvided extracts host and scheme from a user-supplied website
// string, defaulting to https when the scheme is missing.
func splitProvided(website string) (domain, scheme string) {
	w := strings.TrimSpace(website)
	if !strings.Contains(w, "://") {
		return strings.TrimSuffix(w, "/"), "https"
	}
	u, err := url.Parse(w)
	if err != nil || u.Host == "" {
		return strings.TrimSuffix(w, "/"), "https"
	}
	return u.Host, u.Scheme
}
