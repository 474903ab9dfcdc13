package heatmap

import (
	"fmt"
	"math"
	"time"

	"github.com/wonny/mindjournal/internal/contracts"
)

// Options configures an Aggregator. Zero values select the defaults.
type Options struct {
	Levels   Levels
	Now      func() time.Time // clock deciding "today"
	Location *time.Location   // zone in which "today" is evaluated

	// PendingToday lets an empty today continue a streak that ran through yesterday.
	// Off by default: any zero-entry day breaks the streak.
	PendingToday bool
}

// Aggregator turns journal records into a yearly heatmap grid.
// It holds no mutable state and is safe for concurrent use.
type Aggregator struct {
	levels       Levels
	now          func() time.Time
	loc          *time.Location
	pendingToday bool
}

// New creates an Aggregator
func New(opts Options) *Aggregator {
	a := &Aggregator{
		levels:       opts.Levels,
		now:          opts.Now,
		loc:          opts.Location,
		pendingToday: opts.PendingToday,
	}
	if a.levels == (Levels{}) {
		a.levels = DefaultLevels
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.loc == nil {
		a.loc = time.UTC
	}
	return a
}

// Levels returns the thresholds in use
func (a *Aggregator) Levels() Levels {
	return a.levels
}

// PendingToday reports whether an empty today may continue a streak
func (a *Aggregator) PendingToday() bool {
	return a.pendingToday
}

// Now returns the current instant in the aggregator's zone
func (a *Aggregator) Now() time.Time {
	return a.now().In(a.loc)
}

// Today returns the current calendar day in the aggregator's zone
func (a *Aggregator) Today() contracts.Date {
	return contracts.DateOf(a.Now())
}

type dayAcc struct {
	count      int
	overallSum int
	scored     bool
}

// BuildGrid groups records by calendar day and lays the year out as 53 weeks x 7 days.
// Records outside year are ignored; records without a date are reported in Grid.Skipped.
func (a *Aggregator) BuildGrid(records []contracts.JournalRecord, year int) (*contracts.Grid, error) {
	if year < 1 || year > 9999 {
		return nil, fmt.Errorf("%w: year %d out of range", contracts.ErrInvalidArgument, year)
	}
	// level 0 must mean exactly "no entries"
	if err := a.levels.Validate(); err != nil {
		return nil, fmt.Errorf("%w: activity levels: %v", contracts.ErrInvalidArgument, err)
	}

	grid := &contracts.Grid{Year: year}
	groups := make(map[contracts.Date]*dayAcc)

	for i, r := range records {
		if r.Date.IsZero() {
			grid.Skipped = append(grid.Skipped, contracts.SkippedRecord{
				Index:    i,
				RecordID: r.ID,
				Reason:   "missing date",
			})
			continue
		}
		if r.Date.Year != year {
			continue
		}

		acc, ok := groups[r.Date]
		if !ok {
			acc = &dayAcc{}
			groups[r.Date] = acc
		}
		acc.count++
		if r.Scores.Overall.Valid {
			acc.overallSum += clampScore(r.Scores.Overall.Value)
			acc.scored = true
		}
		grid.TotalEntries++
	}

	start := contracts.NewDate(year, time.January, 1).Time()
	for w := 0; w < contracts.WeeksPerGrid; w++ {
		for d := 0; d < contracts.DaysPerWeek; d++ {
			date := contracts.DateOf(start.AddDate(0, 0, w*contracts.DaysPerWeek+d))
			if date.Year != year {
				grid.Weeks[w][d] = contracts.DayCell{Date: date}
				continue
			}
			grid.Weeks[w][d] = a.cell(date, groups[date])
		}
	}

	grid.Streak = a.streaks(grid)
	return grid, nil
}

func (a *Aggregator) cell(date contracts.Date, acc *dayAcc) contracts.DayCell {
	cell := contracts.DayCell{Date: date, InYear: true}
	if acc == nil {
		cell.Tooltip = fmt.Sprintf("%s: No entries", date)
		return cell
	}

	cell.EntryCount = acc.count
	cell.ActivityLevel = a.levels.Level(acc.count)
	if acc.scored {
		// absent overall scores contribute 0 to the mean
		avg := int(math.Round(float64(acc.overallSum) / float64(acc.count)))
		cell.AvgScore = &avg
	}
	cell.Tooltip = tooltip(date, acc.count, cell.AvgScore)
	return cell
}

func tooltip(date contracts.Date, count int, avg *int) string {
	noun := "entries"
	if count == 1 {
		noun = "entry"
	}
	text := fmt.Sprintf("%s: %d %s", date, count, noun)
	if avg != nil {
		text += fmt.Sprintf(" • avg score %d", *avg)
	}
	return text
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
