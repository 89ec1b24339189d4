package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"prospector/internal/domain/opportunity"
	"prospector/internal/domain/signal"
)

func xSignal(text string, buying, pain []string) signal.Signal {
	return signal.Signal{
		Source:        signal.SourceX,
		Text:          text,
		URL:           "https://twitter.com/i/web/status/1",
		BuyingSignals: buying,
		PainPoints:    pain,
		Relevance:     0.5,
	}
}

func TestScoreCombinedRun(t *testing.T) {
	scorer := NewScorer(zap.NewNop())

	// 12 primary signals carrying 6 buying signals and 3 pain points total.
	signals := make([]signal.Signal, 0, 12)
	signals = append(signals,
		xSignal("looking for a chatgpt prompts guide", []string{"looking for"}, nil),
		xSignal("does anyone know a good prompts pack, willing to pay", []string{"does anyone know", "willing to pay"}, nil),
		xSignal("i need help with prompts", []string{"i need"}, nil),
		xSignal("any recommendations and where can i find prompt packs", []string{"any recommendations", "where can i find"}, nil),
		xSignal("struggling with prompt quality", nil, []string{"struggling with"}),
		xSignal("so frustrating, wasting hours on prompts", nil, []string{"frustrating", "wasting hours"}),
	)
	for i := len(signals); i < 12; i++ {
		signals = append(signals, xSignal("chatgpt prompts are interesting", nil, nil))
	}

	avg := 4.0
	result := scorer.Score(Input{
		XSignals:   signals,
		TrendScore: 75,
		Competition: &opportunity.CompetitionSummary{
			Keyword:      "chatgpt prompts",
			ProductCount: 2,
			AvgRating:    &avg,
			Level:        opportunity.CompetitionValidated,
			Penalty:      -5,
		},
		PrimaryKeyword: "chatgpt prompts",
	})

	// Demand: 12 signals -> 22, trend 75 -> 10.
	assert.Equal(t, 32.0, result.DemandScore)
	// Intent: 6 buying -> 10, 3 pain -> 4.
	assert.Equal(t, 14.0, result.IntentScore)
	assert.Equal(t, -5, result.CompetitionPenalty)
	assert.Equal(t, 41.0, result.OpportunityScore)
	assert.Equal(t, opportunity.ConfidenceLow, result.Confidence)

	assert.Equal(t, 12, result.XMentions)
	assert.Equal(t, 0, result.RedditMentions)
	assert.Equal(t, 75, result.TrendScore)
	assert.Equal(t, "chatgpt prompts", result.PrimaryKeyword)
	assert.Equal(t, opportunity.ProductPromptPack, result.ProductType)
	assert.Equal(t, "Chatgpt Prompts Prompt Pack", result.Title)
	// Score 41 lands in the default band for prompt packs.
	assert.Equal(t, 900, result.SuggestedPriceCents)
	assert.LessOrEqual(t, len(result.EvidenceURLs), 5)
}

func TestScoreNoSignals(t *testing.T) {
	scorer := NewScorer(zap.NewNop())

	result := scorer.Score(Input{PrimaryKeyword: "notion templates"})

	assert.Equal(t, 0.0, result.OpportunityScore)
	assert.Equal(t, 0.0, result.DemandScore)
	assert.Equal(t, 0.0, result.IntentScore)
	assert.Equal(t, 0, result.CompetitionPenalty)
	assert.Equal(t, opportunity.ConfidenceLow, result.Confidence)
	assert.Equal(t, "Notion Templates", result.Title)
	assert.Equal(t, "No signals found", result.Description)
	assert.Equal(t, "unknown", result.TargetAudience)
	assert.Equal(t, opportunity.ProductGuide, result.ProductType)
	assert.Equal(t, 900, result.SuggestedPriceCents)
	assert.Empty(t, result.EvidenceURLs)
}

func TestScoreNoSignalsNoKeyword(t *testing.T) {
	scorer := NewScorer(zap.NewNop())

	result := scorer.Score(Input{})

	assert.Equal(t, "Unknown Opportunity", result.Title)
	assert.Equal(t, "unknown", result.PrimaryKeyword)
}

func TestScoreClampedToZero(t *testing.T) {
	scorer := NewScorer(zap.NewNop())

	result := scorer.Score(Input{
		XSignals: []signal.Signal{
			xSignal("quiet mention", nil, nil),
			xSignal("another quiet mention", nil, nil),
		},
		Competition: &opportunity.CompetitionSummary{
			Level:   opportunity.CompetitionSaturated,
			Penalty: -20,
		},
		PrimaryKeyword: "saturated niche",
	})

	// demand 8, intent 0, penalty -20: clamped at zero.
	assert.Equal(t, 0.0, result.OpportunityScore)
}

func TestScoreIsClampedSumOfParts(t *testing.T) {
	scorer := NewScorer(zap.NewNop())

	cases := []struct {
		name    string
		x       int
		reddit  int
		trend   int
		penalty int
	}{
		{"small", 2, 0, 0, -5},
		{"medium", 10, 5, 55, -10},
		{"large", 25, 12, 90, -3},
		{"punished", 25, 12, 90, -20},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := Input{
				TrendScore: tc.trend,
				Competition: &opportunity.CompetitionSummary{
					Penalty: tc.penalty,
				},
				PrimaryKeyword: "topic",
			}
			for i := 0; i < tc.x; i++ {
				in.XSignals = append(in.XSignals,
					xSignal("need a guide, looking for help", []string{"looking for"}, []string{"struggling with"}))
			}
			for i := 0; i < tc.reddit; i++ {
				in.RedditSignals = append(in.RedditSignals, signal.Signal{
					Source:        signal.SourceReddit,
					Text:          "need a guide for this",
					Engagement:    100,
					BuyingSignals: []string{"i need"},
					PainPoints:    []string{"frustrating"},
				})
			}

			result := scorer.Score(in)

			expected := result.DemandScore + result.IntentScore + float64(result.CompetitionPenalty)
			expected = clamp(expected, 0, 100)
			assert.Equal(t, expected, result.OpportunityScore)
			assert.LessOrEqual(t, result.DemandScore, 50.0)
			assert.LessOrEqual(t, result.IntentScore, 40.0)
		})
	}
}

func TestDemandScoreTiers(t *testing.T) {
	scorer := NewScorer(zap.NewNop())

	cases := []struct {
		name     string
		x        int
		expected float64
	}{
		{"twenty", 20, 30},
		{"ten", 10, 22},
		{"five", 5, 15},
		{"two", 2, 8},
		{"one", 1, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := Input{}
			for i := 0; i < tc.x; i++ {
				in.XSignals = append(in.XSignals, xSignal("mention", nil, nil))
			}
			assert.Equal(t, tc.expected, scorer.demandScore(in))
		})
	}
}

func TestDemandScoreRedditEngagementTiers(t *testing.T) {
	scorer := NewScorer(zap.NewNop())

	build := func(n, engagementEach int) Input {
		in := Input{}
		for i := 0; i < n; i++ {
			in.RedditSignals = append(in.RedditSignals, signal.Signal{
				Source:     signal.SourceReddit,
				Engagement: engagementEach,
			})
		}
		return in
	}

	assert.Equal(t, 10.0, scorer.demandScore(build(10, 50)))
	assert.Equal(t, 7.0, scorer.demandScore(build(5, 40)))
	// High volume with weak engagement falls to the volume-only tier.
	assert.Equal(t, 4.0, scorer.demandScore(build(10, 10)))
	assert.Equal(t, 0.0, scorer.demandScore(build(1, 1000)))
}

func TestConfidenceTiers(t *testing.T) {
	assert.Equal(t, opportunity.ConfidenceHigh, confidenceFor(15, 70))
	assert.Equal(t, opportunity.ConfidenceMedium, confidenceFor(14, 70))
	assert.Equal(t, opportunity.ConfidenceMedium, confidenceFor(7, 50))
	assert.Equal(t, opportunity.ConfidenceLow, confidenceFor(7, 49))
	assert.Equal(t, opportunity.ConfidenceLow, confidenceFor(6, 90))
}

func TestInferProductType(t *testing.T) {
	scorer := NewScorer(zap.NewNop())

	in := Input{
		XSignals: []signal.Signal{
			xSignal("looking for a notion template to organize work", nil, nil),
			xSignal("any template recommendations?", nil, nil),
		},
	}
	assert.Equal(t, opportunity.ProductTemplatePack, scorer.inferProductType(in))

	// No keyword hits default to guide.
	none := Input{XSignals: []signal.Signal{xSignal("completely unrelated words", nil, nil)}}
	assert.Equal(t, opportunity.ProductGuide, scorer.inferProductType(none))
}

func TestSuggestPriceSteps(t *testing.T) {
	band := priceBands[opportunity.ProductGuide]
	require.Equal(t, 900, band.Min)

	assert.Equal(t, band.Max, suggestPrice(opportunity.ProductGuide, 85))
	assert.Equal(t, (band.Max+band.Default)/2, suggestPrice(opportunity.ProductGuide, 65))
	assert.Equal(t, band.Default, suggestPrice(opportunity.ProductGuide, 45))
	assert.Equal(t, band.Min, suggestPrice(opportunity.ProductGuide, 20))
}

func TestEvidenceURLsPrimaryFirst(t *testing.T) {
	in := Input{
		XSignals: []signal.Signal{
			{Source: signal.SourceX, URL: "x-low", Relevance: 0.2},
			{Source: signal.SourceX, URL: "x-high", Relevance: 0.9},
		},
		RedditSignals: []signal.Signal{
			{Source: signal.SourceReddit, URL: "r-1", Relevance: 0.8},
			{Source: signal.SourceReddit, URL: "r-2", Relevance: 0.7},
			{Source: signal.SourceReddit, URL: "r-3", Relevance: 0.6},
			{Source: signal.SourceReddit, URL: "r-4", Relevance: 0.5},
		},
	}

	urls := evidenceURLs(in)
	assert.Equal(t, []string{"x-high", "x-low", "r-1", "r-2", "r-3"}, urls)
}

func TestTopByFrequency(t *testing.T) {
	items := []string{"b", "a", "b", "c", "a", "b"}
	assert.Equal(t, []string{"b", "a", "c"}, topByFrequency(items, 5))
	assert.Equal(t, []string{"b"}, topByFrequency(items, 1))
}

func TestIdentifyAudience(t *testing.T) {
	in := Input{
		XSignals: []signal.Signal{
			xSignal("as a freelancer I keep losing track of invoices", nil, nil),
		},
	}
	assert.Contains(t, identifyAudience(in), "freelancers")

	empty := Input{XSignals: []signal.Signal{xSignal("nothing matching here", nil, nil)}}
	assert.Equal(t, "digital product buyers", identifyAudience(empty))
}
