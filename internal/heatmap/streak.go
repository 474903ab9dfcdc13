package heatmap

import "github.com/wonny/mindjournal/internal/contracts"

// StreakMilestones are the streak lengths celebrated on the dashboard
var StreakMilestones = []int{7, 30, 60, 100, 180, 365}

func (a *Aggregator) streaks(grid *contracts.Grid) contracts.StreakState {
	days := grid.Days()
	return contracts.StreakState{
		CurrentStreak: currentStreak(days, a.anchor(days, grid.Year)),
		LongestStreak: longestStreak(days),
	}
}

// anchor returns the index the current streak is counted back from, or -1.
// Today when it falls inside the year, else the latest day with entries.
func (a *Aggregator) anchor(days []contracts.DayCell, year int) int {
	today := a.Today()
	if today.Year == year {
		idx := today.Time().YearDay() - 1
		if a.pendingToday && days[idx].EntryCount == 0 {
			idx--
		}
		return idx
	}

	for i := len(days) - 1; i >= 0; i-- {
		if days[i].EntryCount > 0 {
			return i
		}
	}
	return -1
}

func currentStreak(days []contracts.DayCell, anchor int) int {
	streak := 0
	for i := anchor; i >= 0 && days[i].EntryCount > 0; i-- {
		streak++
	}
	return streak
}

func longestStreak(days []contracts.DayCell) int {
	longest, run := 0, 0
	for _, day := range days {
		if day.EntryCount == 0 {
			run = 0
			continue
		}
		run++
		if run > longest {
			longest = run
		}
	}
	return longest
}

// Milestones returns the milestones reached by a streak of the given length
func Milestones(streak int) []int {
	reached := []int{}
	for _, m := range StreakMilestones {
		if streak >= m {
			reached = append(reached, m)
		}
	}
	return reached
}
