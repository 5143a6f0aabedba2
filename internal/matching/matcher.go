// Package matching pairs receipt line items with catalog products.
// Receipt names are abbreviated, upper-cased and accent-stripped, so
// matching runs on normalized tokens with the price as a tie breaker.
package matching

import (
	"math"
	"sort"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"github.com/mercapi/mercapi-backend/internal/catalog"
	"github.com/mercapi/mercapi-backend/pkg/config"
	"github.com/mercapi/mercapi-backend/pkg/textutil"
)

const (
	// DefaultThreshold is the minimum combined score for a match.
	DefaultThreshold = 60

	defaultNameWeight  = 0.7
	defaultPriceWeight = 0.3
)

// Match is one scored candidate for a receipt item.
type Match struct {
	Product catalog.ProductDTO
	Score   float64
}

// Matcher scores receipt items against catalog products.
type Matcher struct {
	metric      strutil.StringMetric
	threshold   float64
	nameWeight  float64
	priceWeight float64
}

// New builds a matcher from config, falling back to the documented
// defaults when weights are unset.
func New(cfg config.MatcherConfig) *Matcher {
	m := &Matcher{
		metric:      metrics.NewSorensenDice(),
		threshold:   cfg.Threshold,
		nameWeight:  cfg.NameWeight,
		priceWeight: cfg.PriceWeight,
	}
	if m.threshold <= 0 {
		m.threshold = DefaultThreshold
	}
	if m.nameWeight <= 0 {
		m.nameWeight = defaultNameWeight
	}
	if m.priceWeight <= 0 {
		m.priceWeight = defaultPriceWeight
	}
	return m
}

// Closest scores every product against the query and returns candidates
// at or above the threshold, best first, capped at maxResults. A zero
// threshold argument uses the configured one; maxResults <= 0 means no
// cap. unitPrice may be nil when the receipt gave no usable price; the
// price term then scores zero, so unpriced queries top out at the name
// weight and the threshold means the same thing either way.
func (m *Matcher) Closest(products []catalog.ProductDTO, name string, unitPrice *float64, threshold float64, maxResults int) []Match {
	if threshold <= 0 {
		threshold = m.threshold
	}
	query := textutil.NormalizeName(name)
	queryTokens := strings.Fields(query)

	matches := make([]Match, 0, 8)
	for i := range products {
		score := m.score(query, queryTokens, &products[i], unitPrice)
		if score >= threshold {
			matches = append(matches, Match{Product: products[i], Score: score})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if maxResults > 0 && len(matches) > maxResults {
		matches = matches[:maxResults]
	}
	return matches
}

// Best returns the single highest-scoring match, or nil when nothing
// clears the threshold.
func (m *Matcher) Best(products []catalog.ProductDTO, name string, unitPrice *float64) *Match {
	matches := m.Closest(products, name, unitPrice, 0, 1)
	if len(matches) == 0 {
		return nil
	}
	return &matches[0]
}

func (m *Matcher) score(query string, queryTokens []string, p *catalog.ProductDTO, unitPrice *float64) float64 {
	nameScore := m.nameScore(query, queryTokens, textutil.NormalizeName(p.Name))

	priceScore := 0.0
	if unitPrice != nil && *unitPrice > 0 && p.Price > 0 {
		priceScore = math.Max(0, 100-100*math.Abs(p.Price-*unitPrice)/p.Price)
	}
	return m.nameWeight*nameScore + m.priceWeight*priceScore
}

// nameScore treats an abbreviated receipt line as a token set: when
// every query token appears in the product name the names are a full
// match and the price term decides between candidates. Only partial
// token overlap falls back to bigram similarity over the normalized
// strings.
func (m *Matcher) nameScore(query string, queryTokens []string, normalizedProduct string) float64 {
	if len(queryTokens) > 0 && containsAll(strings.Fields(normalizedProduct), queryTokens) {
		return 100
	}
	return strutil.Similarity(query, normalizedProduct, m.metric) * 100
}

func containsAll(have, want []string) bool {
	set := make(map[string]struct{}, len(have))
	for _, t := range have {
		set[t] = struct{}{}
	}
	for _, t := range want {
		if _, ok := set[t]; !ok {
			return false
		}
	}
	return true
}
