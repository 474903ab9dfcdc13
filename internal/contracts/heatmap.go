package contracts

// Grid geometry: 53 weeks always cover a year, whatever the leap year or weekday of Jan 1
const (
	WeeksPerGrid     = 53
	DaysPerWeek      = 7
	MaxActivityLevel = 4
)

// DayCell is one day of the heatmap grid
type DayCell struct {
	Date          Date   `json:"date"`
	InYear        bool   `json:"in_year"` // false for padding past Dec 31
	EntryCount    int    `json:"entry_count"`
	ActivityLevel int    `json:"activity_level"` // 0..MaxActivityLevel
	AvgScore      *int   `json:"avg_score,omitempty"`
	Tooltip       string `json:"tooltip"`
}

// StreakState holds streak counters derived from the grid
type StreakState struct {
	CurrentStreak int `json:"current_streak"`
	LongestStreak int `json:"longest_streak"`
}

// SkippedRecord reports an input record that could not be placed on the grid
type SkippedRecord struct {
	Index    int    `json:"index"`
	RecordID string `json:"record_id,omitempty"`
	Reason   string `json:"reason"`
}

// Grid is the aggregated heatmap of one year. Cell [w][d] is Jan 1 + 7w + d.
type Grid struct {
	Year         int                                `json:"year"`
	Weeks        [WeeksPerGrid][DaysPerWeek]DayCell `json:"weeks"`
	Streak       StreakState                        `json:"streak"`
	TotalEntries int                                `json:"total_entries"`
	Skipped      []SkippedRecord                    `json:"skipped,omitempty"`
}

// Cell returns the in-year cell for d
func (g *Grid) Cell(d Date) (DayCell, bool) {
	if d.Year != g.Year {
		return DayCell{}, false
	}
	idx := d.Time().YearDay() - 1
	return g.Weeks[idx/DaysPerWeek][idx%DaysPerWeek], true
}

// Days returns the in-year cells in chronological order
func (g *Grid) Days() []DayCell {
	days := make([]DayCell, 0, DaysInYear(g.Year))
	for w := 0; w < WeeksPerGrid; w++ {
		for d := 0; d < DaysPerWeek; d++ {
			if cell := g.Weeks[w][d]; cell.InYear {
				days = append(days, cell)
			}
		}
	}
	return days
}

// HeatmapResponse is the dashboard payload for one user and year
type HeatmapResponse struct {
	UserID       string                             `json:"user_id"`
	Year         int                                `json:"year"`
	Weeks        [WeeksPerGrid][DaysPerWeek]DayCell `json:"weeks"`
	Streak       StreakState                        `json:"streak"`
	Milestones   []int                              `json:"milestones"`
	TotalEntries int                                `json:"total_entries"`
	Skipped      int                                `json:"skipped"`
}
