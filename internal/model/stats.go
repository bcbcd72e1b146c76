package model

import (
	"sort"
	"time"
)

// BatchStats summarizes a finished batch for reporting collaborators.
type BatchStats struct {
	Total                  int                    `json:"total"`
	MultiLocationCount     int                    `json:"multiLocationCount"`
	PhoneMismatchCount     int                    `json:"phoneMismatchCount"`
	ConfidenceDistribution map[ConfidenceTier]int `json:"confidenceDistribution"`
	UniqueDomains          int                    `json:"uniqueDomains"`
	BusinessEmailCount     int                    `json:"businessEmailCount"`
	PersonalEmailCount     int                    `json:"personalEmailCount"`
	TopDomains             []DomainCount          `json:"topDomains,omitempty"`
	GeneratedAt            time.Time              `json:"generatedAt"`
}

// DomainCount is a domain with the number of records using it.
type DomainCount struct {
	Domain string `json:"domain"`
	Count  int    `json:"count"`
}

const topDomainLimit = 10

// ComputeStats builds batch statistics from finalized records.
func ComputeStats(records []ContactRecord, now time.Time) BatchStats {
	st := BatchStats{
		Total: len(records),
		ConfidenceDistribution: map[ConfidenceTier]int{
			ConfidenceHigh:   0,
			ConfidenceMedium: 0,
			ConfidenceLow:    0,
		},
		GeneratedAt: now.UTC(),
	}

	domains := make(map[string]int)
	for i := range records {
		r := &records[i]
		st.ConfidenceDistribution[r.Confidence]++
		if len(r.AdditionalLocations) > 0 {
			st.MultiLocationCount++
		}
		if r.Enrichment != nil && r.Enrichment.PhoneCheck != nil && r.Enrichment.PhoneCheck.HasMismatch {
			st.PhoneMismatchCount++
		}
		switch r.DomainType {
		case DomainBusiness:
			st.BusinessEmailCount++
		case DomainPersonal:
			st.PersonalEmailCount++
		}
		if r.Domain != "" {
			domains[r.Domain]++
		}
	}

	st.UniqueDomains = len(domains)
	for d, n := range domains {
		st.TopDomains = append(st.TopDomains, DomainCount{Domain: d, Count: n})
	}
	sort.Slice(st.TopDomains, func(i, j int) bool {
		if st.TopDomains[i].Count != st.TopDomains[j].Count {
			return st.TopDomains[i].Count > st.TopDomains[j].Count
		}
		return st.TopDomains[i].Domain < st.TopDomains[j].Domain
	})
	if len(st.TopDomains) > topDomainLimit {
		st.TopDomains = st.TopDomains[:topDomainLimit]
	}
	return st
}
