package league

import "strings"

const (
	EventGoal           = "Goal"
	DetailMissedPenalty = "Missed Penalty"
)

// MinuteBucketLabels are the histogram windows, each closed on the right.
var MinuteBucketLabels = []string{"0-15", "16-30", "31-45", "46-60", "61-75", "76-90"}

const firstHalfBuckets = 3

// IsGoal reports whether the event put the ball in the net.
func (e GoalEvent) IsGoal() bool {
	return strings.EqualFold(e.Type, EventGoal) && !strings.EqualFold(e.Detail, DetailMissedPenalty)
}

func bucketFor(minute int) int {
	if minute <= 0 {
		return 0
	}
	idx := (minute - 1) / 15
	if idx >= len(MinuteBucketLabels) {
		return -1
	}
	return idx
}

// CalculateMinuteDistribution builds a team's time-of-goal histogram from the
// events of the goals it scored. Events credited to another team are ignored;
// events without a team are counted. It returns nil when there are no goals.
// Stoppage-time goals beyond minute 90 count toward Total without falling in
// a bucket.
func CalculateMinuteDistribution(teamID int, events []GoalEvent) *MinuteDistribution {
	counts := make([]int, len(MinuteBucketLabels))
	total := 0

	for _, e := range events {
		if !e.IsGoal() || (e.TeamID != 0 && e.TeamID != teamID) {
			continue
		}
		total++
		if idx := bucketFor(e.Elapsed); idx >= 0 {
			counts[idx]++
		}
	}

	if total == 0 {
		return nil
	}

	dist := &MinuteDistribution{
		TeamID:  teamID,
		Total:   total,
		Buckets: make([]MinuteBucket, len(MinuteBucketLabels)),
	}
	firstHalf := 0
	for i, label := range MinuteBucketLabels {
		dist.Buckets[i] = MinuteBucket{
			Label:      label,
			Count:      counts[i],
			Percentage: float64(counts[i]) / float64(total) * 100,
		}
		if i < firstHalfBuckets {
			firstHalf += counts[i]
		}
	}
	dist.FirstHalfPercentage = float64(firstHalf) / float64(total) * 100
	return dist
}

// Count returns the goal count for a bucket label, or 0 if unknown.
func (d *MinuteDistribution) Count(label string) int {
	if d == nil {
		return 0
	}
	for _, b := range d.Buckets {
		if b.Label == label {
			return b.Count
		}
	}
	return 0
}
