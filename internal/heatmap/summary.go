package heatmap

import (
	"fmt"
	"sort"
	"time"

	"github.com/wonny/mindjournal/internal/contracts"
)

const defaultEmotion = "neutral"

// DailySummaries aggregates records per calendar day, oldest first.
// Records without a date are ignored; absent scores count as 0.
func DailySummaries(records []contracts.JournalRecord) []contracts.DailySummary {
	byDay := make(map[contracts.Date][]contracts.JournalRecord)
	for _, r := range records {
		if r.Date.IsZero() {
			continue
		}
		byDay[r.Date] = append(byDay[r.Date], r)
	}

	summaries := make([]contracts.DailySummary, 0, len(byDay))
	for date, entries := range byDay {
		summaries = append(summaries, summarizeDay(date, entries))
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Date.Before(summaries[j].Date)
	})
	return summaries
}

func summarizeDay(date contracts.Date, entries []contracts.JournalRecord) contracts.DailySummary {
	s := contracts.DailySummary{
		Date:         date,
		TotalEntries: len(entries),
	}

	var overall, depression, anxiety, stress int
	emotions := make(map[string]int)

	for _, e := range entries {
		switch e.Type {
		case contracts.JournalVideo:
			s.VideoEntries++
		default:
			s.TextEntries++
		}

		overall += e.Scores.Overall.Or(0)
		depression += e.Scores.Depression.Or(0)
		anxiety += e.Scores.Anxiety.Or(0)
		stress += e.Scores.Stress.Or(0)

		emotion := e.DominantEmotion
		if emotion == "" {
			emotion = defaultEmotion
		}
		emotions[emotion]++

		// entries without a timestamp do not bound the day
		if e.Timestamp.IsZero() {
			continue
		}
		if s.FirstEntryTime.IsZero() || e.Timestamp.Before(s.FirstEntryTime) {
			s.FirstEntryTime = e.Timestamp
		}
		if e.Timestamp.After(s.LastEntryTime) {
			s.LastEntryTime = e.Timestamp
		}
	}

	n := float64(len(entries))
	s.AvgOverallScore = float64(overall) / n
	s.AvgDepressionScore = float64(depression) / n
	s.AvgAnxietyScore = float64(anxiety) / n
	s.AvgStressScore = float64(stress) / n

	s.DominantEmotion = dominant(emotions)
	s.EmotionDistribution = make(map[string]float64, len(emotions))
	for emotion, count := range emotions {
		s.EmotionDistribution[emotion] = float64(count) / n
	}

	return s
}

// dominant picks the most frequent key; ties go to the alphabetically first
func dominant(counts map[string]int) string {
	best, bestCount := "", 0
	for k, c := range counts {
		if c > bestCount || (c == bestCount && k < best) {
			best, bestCount = k, c
		}
	}
	return best
}

// MonthlyStats aggregates the days of one month. Score averages are means of daily averages.
func MonthlyStats(records []contracts.JournalRecord, year, month int) (*contracts.MonthlyStats, error) {
	if year < 1 || year > 9999 {
		return nil, fmt.Errorf("%w: year %d out of range", contracts.ErrInvalidArgument, year)
	}
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("%w: month %d out of range", contracts.ErrInvalidArgument, month)
	}

	var inMonth []contracts.JournalRecord
	for _, r := range records {
		if r.Date.Year == year && r.Date.Month == time.Month(month) {
			inMonth = append(inMonth, r)
		}
	}

	stats := &contracts.MonthlyStats{
		Year:                year,
		Month:               month,
		EmotionDistribution: make(map[string]int),
	}

	days := DailySummaries(inMonth)
	if len(days) == 0 {
		return stats, nil
	}

	best, worst := days[0], days[0]
	for _, d := range days {
		stats.TotalEntries += d.TotalEntries
		stats.TextEntries += d.TextEntries
		stats.VideoEntries += d.VideoEntries
		stats.AvgOverallScore += d.AvgOverallScore
		stats.AvgDepressionScore += d.AvgDepressionScore
		stats.AvgAnxietyScore += d.AvgAnxietyScore
		stats.AvgStressScore += d.AvgStressScore
		stats.EmotionDistribution[d.DominantEmotion]++

		// strict comparisons keep the earliest day on ties
		if d.AvgOverallScore > best.AvgOverallScore {
			best = d
		}
		if d.AvgOverallScore < worst.AvgOverallScore {
			worst = d
		}
	}

	n := float64(len(days))
	stats.AvgOverallScore /= n
	stats.AvgDepressionScore /= n
	stats.AvgAnxietyScore /= n
	stats.AvgStressScore /= n
	stats.DaysWithEntries = len(days)
	stats.BestDay = &best.Date
	stats.ChallengingDay = &worst.Date

	return stats, nil
}

// HourPattern counts entries per hour of creation in loc. Records without a timestamp are ignored.
func HourPattern(records []contracts.JournalRecord, loc *time.Location) contracts.HourPattern {
	if loc == nil {
		loc = time.UTC
	}

	pattern := contracts.HourPattern{PeakHour: -1}
	for _, r := range records {
		if r.Timestamp.IsZero() {
			continue
		}
		pattern.Counts[r.Timestamp.In(loc).Hour()]++
		pattern.Total++
	}

	peak := 0
	for hour, count := range pattern.Counts {
		if count > peak {
			peak = count
			pattern.PeakHour = hour
		}
	}
	return pattern
}
