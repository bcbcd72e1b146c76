package domain

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/roster-cli/internal/model"
	"github.com/sells-group/roster-cli/internal/validate"
)

func newTestClassifier(cache Cache) *Classifier {
	return NewClassifier(validate.DefaultLexicon().PersonalDomains, cache)
}

func TestClassify(t *testing.T) {
	t.Parallel()
	c := newTestClassifier(NewMapCache())

	tests := []struct {
		email string
		want  Result
	}{
		{"jdoe@acme.com", Result{"acme.com", model.DomainBusiness}},
		{"jdoe@www.Acme.com", Result{"acme.com", model.DomainBusiness}},
		{"someone@gmail.com", Result{"gmail.com", model.DomainPersonal}},
		{"someone@law.co.uk", Result{"law.co.uk", model.DomainBusiness}},
		{"bad@localhost", Result{"", model.DomainUnknown}},
		{"bad@acme.c0m", Result{"", model.DomainUnknown}},
		{"no-at-sign", Result{"", model.DomainUnknown}},
		{"x@", Result{"", model.DomainUnknown}},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.email))
		})
	}
}

func TestClassify_CaseInvariantAndStable(t *testing.T) {
	t.Parallel()
	c := newTestClassifier(NewMapCache())

	base := c.Classify("jdoe@acme.com")
	for _, e := range []string{"JDOE@ACME.COM", "jdoe@Acme.Com", "jdoe@acme.com"} {
		assert.Equal(t, base, c.Classify(e))
		assert.Equal(t, base, c.Classify(e))
	}
	assert.Equal(t, c.Classify("A@GMAIL.COM"), c.Classify("a@gmail.com"))
}

func TestClassify_CachesRawAndNormalized(t *testing.T) {
	t.Parallel()
	cache := NewMapCache()
	c := newTestClassifier(cache)

	c.Classify("a@WWW.Acme.com")
	_, rawOK := cache.Get("WWW.Acme.com")
	_, normOK := cache.Get("acme.com")
	assert.True(t, rawOK)
	assert.True(t, normOK)
	assert.Equal(t, 2, cache.Len())

	c.Classify("b@acme.com")
	assert.Equal(t, 2, cache.Len())
}

func TestClassify_InstancesDoNotShareCache(t *testing.T) {
	t.Parallel()
	c1 := newTestClassifier(NewMapCache())
	c2 := NewClassifier([]string{"acme.com"}, NewMapCache())

	assert.Equal(t, model.DomainBusiness, c1.Classify("a@acme.com").DomainType)
	assert.Equal(t, model.DomainPersonal, c2.Classify("a@acme.com").DomainType)
}

func TestClassify_NilCache(t *testing.T) {
	t.Parallel()
	c := newTestClassifier(nil)
	assert.Equal(t, model.DomainPersonal, c.Classify("x@yahoo.com").DomainType)
}

func TestClassify_Concurrent(t *testing.T) {
	t.Parallel()
	c := newTestClassifier(NewMapCache())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			email := "user@acme.com"
			if i%2 == 0 {
				email = strings.ToUpper(email)
			}
			assert.Equal(t, model.DomainBusiness, c.Classify(email).DomainType)
		}(i)
	}
	wg.Wait()
}

func TestOrganization(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "acme.co.uk", Organization("ny.acme.co.uk"))
	assert.Equal(t, "acme.com", Organization("www.acme.com"))
	assert.Equal(t, "acme.com", Organization("ACME.com."))
	assert.Equal(t, "", Organization(""))
}
