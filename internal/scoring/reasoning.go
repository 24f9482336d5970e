package scoring

import (
	"fmt"
	"strings"
)

var rule = strings.Repeat("=", 80)

func conclusion(m Market, c Confidence) string {
	switch c {
	case ConfidenceHigh:
		return fmt.Sprintf("Strong indicators for %s in this fixture.", m.Event())
	case ConfidenceMedium:
		return fmt.Sprintf("Reasonable indicators for %s, worth considering.", m.Event())
	case ConfidenceLow:
		return fmt.Sprintf("Weak indicators for %s, proceed with caution.", m.Event())
	default:
		return fmt.Sprintf("Little support for %s.", m.Event())
	}
}

func writeMarket(b *strings.Builder, r MarketResult) {
	fmt.Fprintf(b, "%s\n%s\n%s\n", rule, r.Market.Title(), rule)
	fmt.Fprintf(b, "FINAL SCORE: %.2f/100 | Confidence: %s | Recommendation: %s\n",
		r.Score, r.Confidence, r.Recommendation)
	for _, c := range r.Components {
		fmt.Fprintf(b, "\n%s (%.0f%%): %.2f/100\n", c.Component.Title(), c.Weight*100, c.Score)
		fmt.Fprintf(b, "   %s\n", c.Explanation)
	}
	fmt.Fprintf(b, "\nConclusion: %s\n", conclusion(r.Market, r.Confidence))
}

// BuildReasoning renders the report for a set of market results, in order.
// The text depends only on its arguments.
func BuildReasoning(results ...MarketResult) string {
	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n")
		}
		writeMarket(&b, r)
	}
	b.WriteString(rule)
	b.WriteString("\n")
	return b.String()
}
