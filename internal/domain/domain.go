// Package domain classifies email domains as business or personal.
package domain

import (
	"regexp"
	"strings"
	"sync"

	"golang.org/x/net/publicsuffix"

	"github.com/sells-group/roster-cli/internal/model"
)

var hostShape = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9\-]*[a-z0-9])?(?:\.[a-z0-9](?:[a-z0-9\-]*[a-z0-9])?)*\.[a-z]{2,}$`)

// Result is the classification of one email.
type Result struct {
	Domain     string           `json:"domain,omitempty"`
	DomainType model.DomainType `json:"domainType"`
}

// Cache memoizes classification results. Implementations must be safe for
// concurrent use.
type Cache interface {
	Get(key string) (Result, bool)
	Set(key string, r Result)
}

// MapCache is a mutex-guarded in-memory Cache.
type MapCache struct {
	mu sync.RWMutex
	m  map[string]Result
}

// NewMapCache creates an empty MapCache.
func NewMapCache() *MapCache {
	return &MapCache{m: make(map[string]Result)}
}

// Get returns a cached result.
func (c *MapCache) Get(key string) (Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.m[key]
	return r, ok
}

// Set stores a result.
func (c *MapCache) Set(key string, r Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = r
}

// Len returns the number of cached keys.
func (c *MapCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

// Classifier classifies email domains against a personal-provider set.
type Classifier struct {
	personal map[string]bool
	cache    Cache
}

// NewClassifier creates a Classifier. A nil cache disables memoization.
func NewClassifier(personalDomains []string, cache Cache) *Classifier {
	set := make(map[string]bool, len(personalDomains))
	for _, d := range personalDomains {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			set[d] = true
		}
	}
	return &Classifier{personal: set, cache: cache}
}

// Classify returns the domain and domain type of an email. Malformed
// domains classify as unknown with an empty domain.
func (c *Classifier) Classify(email string) Result {
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return Result{DomainType: model.DomainUnknown}
	}
	raw := strings.TrimSpace(email[at+1:])

	if c.cache != nil {
		if r, ok := c.cache.Get(raw); ok {
			return r
		}
	}

	norm := Normalize(raw)
	if c.cache != nil && norm != raw {
		if r, ok := c.cache.Get(norm); ok {
			c.cache.Set(raw, r)
			return r
		}
	}

	r := c.classifyDomain(norm)
	if c.cache != nil {
		c.cache.Set(raw, r)
		c.cache.Set(norm, r)
	}
	return r
}

func (c *Classifier) classifyDomain(norm string) Result {
	if !hostShape.MatchString(norm) {
		return Result{DomainType: model.DomainUnknown}
	}
	if c.personal[norm] {
		return Result{Domain: norm, DomainType: model.DomainPersonal}
	}
	return Result{Domain: norm, DomainType: model.DomainBusiness}
}

// Normalize lowercases a host and strips a leading "www." and any trailing
// dot.
func Normalize(host string) string {
	h := strings.ToLower(strings.TrimSpace(host))
	h = strings.TrimSuffix(h, ".")
	return strings.TrimPrefix(h, "www.")
}

// Organization returns the registrable domain (eTLD+1) of a host, so that
// "ny.acme.co.uk" and "acme.co.uk" group together. It falls back to the
// normalized host.
func Organization(host string) string {
	h := Normalize(host)
	if h == "" {
		return ""
	}
	org, err := publicsuffix.EffectiveTLDPlusOne(h)
	if err != nil {
		return h
	}
	return org
}
