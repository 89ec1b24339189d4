package scoring

import (
	"prospector/internal/domain/opportunity"
)

// priceBand is a price range for one product type, in cents.
type priceBand struct {
	Min     int
	Default int
	Max     int
}

// Static scoring tables. These are fixed configuration data, loaded once and
// referenced read-only by the scorer.
var (
	priceBands = map[opportunity.ProductType]priceBand{
		opportunity.ProductPromptPack:   {Min: 500, Default: 900, Max: 1500},
		opportunity.ProductGuide:        {Min: 900, Default: 1900, Max: 2900},
		opportunity.ProductTemplatePack: {Min: 700, Default: 1200, Max: 1900},
		opportunity.ProductChecklist:    {Min: 500, Default: 700, Max: 1200},
		opportunity.ProductRoadmap:      {Min: 900, Default: 1500, Max: 2500},
	}

	// productTypeOrder fixes iteration order so argmax ties resolve the same
	// way on every run.
	productTypeOrder = []opportunity.ProductType{
		opportunity.ProductPromptPack,
		opportunity.ProductGuide,
		opportunity.ProductTemplatePack,
		opportunity.ProductChecklist,
		opportunity.ProductRoadmap,
	}

	productTypeKeywords = map[opportunity.ProductType][]string{
		opportunity.ProductPromptPack:   {"prompt", "chatgpt", "gpt", "ai prompt", "llm", "claude"},
		opportunity.ProductGuide:        {"guide", "tutorial", "how to", "learn", "course", "step by step"},
		opportunity.ProductTemplatePack: {"template", "notion", "spreadsheet", "worksheet", "doc"},
		opportunity.ProductChecklist:    {"checklist", "framework", "process", "system", "sop", "routine"},
		opportunity.ProductRoadmap:      {"roadmap", "plan", "strategy", "path", "journey", "career"},
	}

	titleFormats = map[opportunity.ProductType]string{
		opportunity.ProductPromptPack:   "%s Prompt Pack",
		opportunity.ProductGuide:        "The Complete %s Guide",
		opportunity.ProductTemplatePack: "%s Template Bundle",
		opportunity.ProductChecklist:    "%s Checklist & Framework",
		opportunity.ProductRoadmap:      "%s Roadmap",
	}

	stopWords = map[string]struct{}{
		"the": {}, "a": {}, "an": {}, "is": {}, "are": {}, "for": {}, "to": {},
		"of": {}, "and": {}, "or": {}, "in": {}, "on": {}, "at": {}, "by": {},
		"with": {}, "how": {}, "what": {}, "why": {}, "when": {}, "i": {},
		"you": {}, "my": {}, "your": {}, "this": {}, "that": {}, "it": {},
		"do": {}, "does": {},
	}

	// audienceKeywords maps phrases found in signal text to a named buyer
	// audience. First three distinct matches win, in table order.
	audienceKeywords = []struct {
		Keyword  string
		Audience string
	}{
		{"real estate", "real estate agents"},
		{"small business", "small business owners"},
		{"startup", "startup founders"},
		{"freelanc", "freelancers"},
		{"teacher", "teachers"},
		{"coach", "coaches"},
		{"content creator", "content creators"},
		{"productivity", "productivity enthusiasts"},
		{"chatgpt", "AI users"},
		{"career", "career changers"},
	}
)
