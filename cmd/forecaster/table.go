package main

import (
	"fmt"
	"io"

	"github.com/utakatalp/goal-forecaster/internal/store"
)

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "."
}

// printPredictions writes a ranked table of predictions.
func printPredictions(w io.Writer, label string, recs []store.PredictionRecord) {
	fmt.Fprintln(w, label)
	fmt.Fprintf(w, "%-3s %-5s %-20s %-20s %6s %-8s %-5s %6s %-8s %-5s\n",
		"#", "Time", "Home", "Away", "HT", "Conf", "Rec", "FT", "Conf", "Rec")
	for i, r := range recs {
		fmt.Fprintf(w, "%-3d %-5s %-20s %-20s %6.2f %-8s %-5s %6.2f %-8s %-5s\n",
			i+1,
			r.Kickoff.UTC().Format("15:04"),
			truncate(r.HomeTeam, 20),
			truncate(r.AwayTeam, 20),
			r.FirstHalfGoal.Score,
			r.FirstHalfGoal.Confidence,
			r.FirstHalfGoal.Recommendation,
			r.Over15.Score,
			r.Over15.Confidence,
			r.Over15.Recommendation,
		)
	}
	if len(recs) == 0 {
		fmt.Fprintln(w, "no fixtures")
	}
}

func printAccuracy(w io.Writer, acc store.Accuracy) {
	fmt.Fprintf(w, "Validated predictions since %s: %d\n", acc.Since.Format("2006-01-02"), acc.Validated)
	fmt.Fprintf(w, "%-12s %6s %7s %8s\n", "Market", "Graded", "Correct", "Accuracy")
	fmt.Fprintf(w, "%-12s %6d %7d %7.1f%%\n", "Over 0.5 HT", acc.GradedFirstHalf, acc.CorrectFirstHalf, acc.FirstHalfAccuracy)
	fmt.Fprintf(w, "%-12s %6d %7d %7.1f%%\n", "Over 1.5 FT", acc.GradedOver15, acc.CorrectOver15, acc.Over15Accuracy)
}
