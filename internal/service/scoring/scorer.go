package scoring

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"prospector/internal/domain/opportunity"
	"prospector/internal/domain/signal"
)

const (
	maxDemandScore = 50.0
	maxIntentScore = 40.0

	// defaultPenalty is used when no competition summary is available.
	defaultPenalty = -5

	maxEvidenceURLs = 5
	maxTopSignals   = 5
)

var wordPattern = regexp.MustCompile(`[a-zA-Z]+`)

// Input carries everything the scorer combines into one opportunity.
// X is the primary source; Reddit is supplementary. Competition may be nil.
type Input struct {
	XSignals       []signal.Signal
	RedditSignals  []signal.Signal
	TrendScore     int
	Competition    *opportunity.CompetitionSummary
	PrimaryKeyword string
}

// Scorer combines normalized signals, trend interest, and competition data
// into a bounded opportunity score.
type Scorer struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewScorer creates a new opportunity scorer.
func NewScorer(logger *zap.Logger) *Scorer {
	return &Scorer{
		logger: logger,
		now:    time.Now,
	}
}

// Score produces a ScoredOpportunity from the pooled signals for one topic.
// The opportunity score is always clamp(demand + intent + penalty, 0, 100).
func (s *Scorer) Score(in Input) opportunity.ScoredOpportunity {
	if len(in.XSignals) == 0 && len(in.RedditSignals) == 0 {
		return s.emptyOpportunity(in.PrimaryKeyword)
	}

	demand := s.demandScore(in)
	intent := s.intentScore(in)

	penalty := defaultPenalty
	if in.Competition != nil {
		penalty = in.Competition.Penalty
		s.logger.Debug("applying competition penalty",
			zap.String("keyword", in.PrimaryKeyword),
			zap.String("level", string(in.Competition.Level)),
			zap.Int("product_count", in.Competition.ProductCount),
			zap.Int("penalty", penalty),
		)
	}

	total := clamp(demand+intent+float64(penalty), 0, 100)

	totalSignals := len(in.XSignals) + len(in.RedditSignals)
	confidence := confidenceFor(totalSignals, total)

	productType := s.inferProductType(in)
	title := s.generateTitle(in, productType)

	painPoints := topByFrequency(collectPainPoints(in), maxTopSignals)
	buyingSignals := topByFrequency(collectBuyingSignals(in), maxTopSignals)

	return opportunity.ScoredOpportunity{
		Title:               title,
		Description:         describe(painPoints, productType),
		TargetAudience:      identifyAudience(in),
		ProductType:         productType,
		OpportunityScore:    total,
		DemandScore:         demand,
		IntentScore:         intent,
		CompetitionPenalty:  penalty,
		Confidence:          confidence,
		PrimaryKeyword:      primaryKeyword(in),
		SuggestedPriceCents: suggestPrice(productType, total),
		XMentions:           len(in.XSignals),
		RedditMentions:      len(in.RedditSignals),
		TrendScore:          in.TrendScore,
		EvidenceURLs:        evidenceURLs(in),
		TopPainPoints:       painPoints,
		TopBuyingSignals:    buyingSignals,
		CreatedAt:           s.now().UTC(),
	}
}

// emptyOpportunity is the defined zero-signal result: score 0, confidence low,
// placeholder title, no word-frequency math.
func (s *Scorer) emptyOpportunity(keyword string) opportunity.ScoredOpportunity {
	title := "Unknown Opportunity"
	if keyword != "" {
		title = titleCase(keyword)
	}
	kw := keyword
	if kw == "" {
		kw = "unknown"
	}
	return opportunity.ScoredOpportunity{
		Title:               title,
		Description:         "No signals found",
		TargetAudience:      "unknown",
		ProductType:         opportunity.ProductGuide,
		Confidence:          opportunity.ConfidenceLow,
		PrimaryKeyword:      kw,
		SuggestedPriceCents: priceBands[opportunity.ProductGuide].Min,
		EvidenceURLs:        []string{},
		TopPainPoints:       []string{},
		TopBuyingSignals:    []string{},
		CreatedAt:           s.now().UTC(),
	}
}

// demandScore is additive over primary signal volume, supplementary volume
// plus engagement, and trend interest, clamped to 50.
func (s *Scorer) demandScore(in Input) float64 {
	score := 0.0

	switch n := len(in.XSignals); {
	case n >= 20:
		score += 30
	case n >= 10:
		score += 22
	case n >= 5:
		score += 15
	case n >= 2:
		score += 8
	}

	if n := len(in.RedditSignals); n > 0 {
		engagement := 0
		for _, sig := range in.RedditSignals {
			engagement += sig.Engagement
		}
		switch {
		case n >= 10 && engagement >= 500:
			score += 10
		case n >= 5 && engagement >= 200:
			score += 7
		case n >= 2:
			score += 4
		}
	}

	switch {
	case in.TrendScore >= 70:
		score += 10
	case in.TrendScore >= 50:
		score += 7
	case in.TrendScore >= 30:
		score += 4
	}

	return clamp(score, 0, maxDemandScore)
}

// intentScore is additive over buying-signal and pain-point counts per source,
// clamped to 40.
func (s *Scorer) intentScore(in Input) float64 {
	score := 0.0

	xBuying, xPain := 0, 0
	for _, sig := range in.XSignals {
		xBuying += len(sig.BuyingSignals)
		xPain += len(sig.PainPoints)
	}

	switch {
	case xBuying >= 10:
		score += 15
	case xBuying >= 5:
		score += 10
	case xBuying >= 2:
		score += 5
	}

	switch {
	case xPain >= 10:
		score += 10
	case xPain >= 5:
		score += 7
	case xPain >= 2:
		score += 4
	}

	redditBuying, redditPain := 0, 0
	for _, sig := range in.RedditSignals {
		redditBuying += len(sig.BuyingSignals)
		redditPain += len(sig.PainPoints)
	}

	switch {
	case redditBuying >= 5:
		score += 5
	case redditBuying >= 2:
		score += 3
	}

	switch {
	case redditPain >= 5:
		score += 5
	case redditPain >= 2:
		score += 3
	}

	return clamp(score, 0, maxIntentScore)
}

func confidenceFor(totalSignals int, score float64) opportunity.Confidence {
	switch {
	case totalSignals >= 15 && score >= 70:
		return opportunity.ConfidenceHigh
	case totalSignals >= 7 && score >= 50:
		return opportunity.ConfidenceMedium
	default:
		return opportunity.ConfidenceLow
	}
}

// inferProductType counts keyword-table hits in signal text, weighting primary
// hits double, and picks the first maximum in fixed table order. A zero
// maximum defaults to guide.
func (s *Scorer) inferProductType(in Input) opportunity.ProductType {
	scores := make(map[opportunity.ProductType]int, len(productTypeKeywords))

	countHits := func(text string, weight int) {
		lower := strings.ToLower(text)
		for productType, keywords := range productTypeKeywords {
			for _, kw := range keywords {
				if strings.Contains(lower, kw) {
					scores[productType] += weight
				}
			}
		}
	}

	for _, sig := range in.XSignals {
		countHits(sig.Text, 2)
	}
	for _, sig := range in.RedditSignals {
		countHits(sig.Text, 1)
	}

	best := opportunity.ProductGuide
	bestScore := 0
	for _, productType := range productTypeOrder {
		if scores[productType] > bestScore {
			best = productType
			bestScore = scores[productType]
		}
	}
	if bestScore == 0 {
		return opportunity.ProductGuide
	}
	return best
}

// generateTitle interpolates the topic into the product type's template. An
// externally supplied primary keyword overrides word-frequency extraction.
func (s *Scorer) generateTitle(in Input, productType opportunity.ProductType) string {
	topic := ""
	if in.PrimaryKeyword != "" {
		topic = titleCase(in.PrimaryKeyword)
	} else {
		words := topContentWords(in, 3)
		if len(words) > 0 {
			topic = titleCase(strings.Join(words, " "))
		} else {
			topic = "Digital Product"
		}
	}

	format, ok := titleFormats[productType]
	if !ok {
		return topic + " Resource Pack"
	}
	return fmt.Sprintf(format, topic)
}

// topContentWords returns the n most frequent content words across signal
// text, primary-source occurrences weighted double.
func topContentWords(in Input, n int) []string {
	counts := map[string]int{}
	addWords := func(text string, weight int) {
		for _, word := range wordPattern.FindAllString(strings.ToLower(text), -1) {
			if len(word) <= 3 {
				continue
			}
			if _, stop := stopWords[word]; stop {
				continue
			}
			counts[word] += weight
		}
	}

	for _, sig := range in.XSignals {
		addWords(sig.Text, 2)
	}
	for _, sig := range in.RedditSignals {
		addWords(sig.Text, 1)
	}

	words := make([]string, 0, len(counts))
	for word := range counts {
		words = append(words, word)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})

	if len(words) > n {
		words = words[:n]
	}
	return words
}

func primaryKeyword(in Input) string {
	if in.PrimaryKeyword != "" {
		return in.PrimaryKeyword
	}
	words := topContentWords(in, 1)
	if len(words) == 0 {
		return "digital product"
	}
	return words[0]
}

// suggestPrice steps through the product type's price band as the score
// crosses 40/60/80.
func suggestPrice(productType opportunity.ProductType, score float64) int {
	band, ok := priceBands[productType]
	if !ok {
		band = priceBands[opportunity.ProductGuide]
	}

	switch {
	case score >= 80:
		return band.Max
	case score >= 60:
		return (band.Max + band.Default) / 2
	case score >= 40:
		return band.Default
	default:
		return band.Min
	}
}

// evidenceURLs returns up to five source URLs, primary source first, each
// source ordered by relevance.
func evidenceURLs(in Input) []string {
	byRelevance := func(signals []signal.Signal) []signal.Signal {
		sorted := make([]signal.Signal, len(signals))
		copy(sorted, signals)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Relevance > sorted[j].Relevance
		})
		return sorted
	}

	urls := make([]string, 0, maxEvidenceURLs)
	for _, sig := range byRelevance(in.XSignals) {
		if len(urls) == maxEvidenceURLs {
			return urls
		}
		if sig.URL != "" {
			urls = append(urls, sig.URL)
		}
	}
	for _, sig := range byRelevance(in.RedditSignals) {
		if len(urls) == maxEvidenceURLs {
			return urls
		}
		if sig.URL != "" {
			urls = append(urls, sig.URL)
		}
	}
	return urls
}

func collectPainPoints(in Input) []string {
	var all []string
	for _, sig := range in.XSignals {
		all = append(all, sig.PainPoints...)
	}
	for _, sig := range in.RedditSignals {
		all = append(all, sig.PainPoints...)
	}
	return all
}

func collectBuyingSignals(in Input) []string {
	var all []string
	for _, sig := range in.XSignals {
		all = append(all, sig.BuyingSignals...)
	}
	for _, sig := range in.RedditSignals {
		all = append(all, sig.BuyingSignals...)
	}
	return all
}

// topByFrequency deduplicates items and returns the n most frequent.
func topByFrequency(items []string, n int) []string {
	counts := map[string]int{}
	for _, item := range items {
		counts[item]++
	}

	unique := make([]string, 0, len(counts))
	for item := range counts {
		unique = append(unique, item)
	}
	sort.Slice(unique, func(i, j int) bool {
		if counts[unique[i]] != counts[unique[j]] {
			return counts[unique[i]] > counts[unique[j]]
		}
		return unique[i] < unique[j]
	})

	if len(unique) > n {
		unique = unique[:n]
	}
	return unique
}

func describe(painPoints []string, productType opportunity.ProductType) string {
	if len(painPoints) > 0 {
		top := painPoints
		if len(top) > 3 {
			top = top[:3]
		}
		return "Helps with: " + strings.Join(top, ", ")
	}
	return fmt.Sprintf("A comprehensive %s based on real user needs.",
		strings.ReplaceAll(string(productType), "_", " "))
}

// identifyAudience scans signal text for known audience phrases.
func identifyAudience(in Input) string {
	var texts []string
	for _, sig := range in.XSignals {
		texts = append(texts, strings.ToLower(sig.Text))
	}
	for _, sig := range in.RedditSignals {
		texts = append(texts, strings.ToLower(sig.Text))
	}

	var audiences []string
	seen := map[string]struct{}{}
	for _, entry := range audienceKeywords {
		for _, text := range texts {
			if strings.Contains(text, entry.Keyword) {
				if _, dup := seen[entry.Audience]; !dup {
					seen[entry.Audience] = struct{}{}
					audiences = append(audiences, entry.Audience)
				}
				break
			}
		}
		if len(audiences) == 3 {
			break
		}
	}

	if len(audiences) == 0 {
		return "digital product buyers"
	}
	return strings.Join(audiences, ", ")
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
