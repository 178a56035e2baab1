// Package detector scores articles for likely fabrication with a fixed
// keyword heuristic. It is deliberately simple: a stand-in with the same
// output shape a real model would have.
package detector

import (
	"math"
	"strings"
)

// Clickbait phrases typical of fabricated stories. Matching is by
// presence, not frequency; each phrase counts at most once.
var suspiciousKeywords = []string{
	"breaking", "shocking", "you won't believe", "doctors hate",
	"secret", "miracle", "guaranteed", "click here", "limited time",
}

// Score maps an article to (fakeProbability, confidenceScore), both in
// [0,1] and rounded to 4 decimal places. Deterministic: identical input
// always yields identical output. Confidence grows with content length and
// with any keyword hit; fake probability grows with the number of distinct
// keywords matched.
func Score(title, content string) (fakeProbability, confidenceScore float64) {
	text := strings.ToLower(title + " " + content)

	matched := 0
	for _, kw := range suspiciousKeywords {
		if strings.Contains(text, kw) {
			matched++
		}
	}

	fakeProbability = math.Min(0.3+float64(matched)*0.15, 0.95)

	confidenceScore = 0.5 + float64(len(content))/1000*0.3
	if matched > 0 {
		confidenceScore += 0.2
	}
	confidenceScore = math.Min(confidenceScore, 0.95)

	return round4(fakeProbability), round4(confidenceScore)
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
