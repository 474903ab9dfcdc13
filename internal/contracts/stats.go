package contracts

import "time"

// DailySummary aggregates the entries of one day
type DailySummary struct {
	Date                Date               `json:"date"`
	TotalEntries        int                `json:"total_entries"`
	TextEntries         int                `json:"text_entries"`
	VideoEntries        int                `json:"video_entries"`
	AvgOverallScore     float64            `json:"avg_overall_score"`
	AvgDepressionScore  float64            `json:"avg_depression_score"`
	AvgAnxietyScore     float64            `json:"avg_anxiety_score"`
	AvgStressScore      float64            `json:"avg_stress_score"`
	DominantEmotion     string             `json:"dominant_emotion"`
	EmotionDistribution map[string]float64 `json:"emotion_distribution"`
	FirstEntryTime      time.Time          `json:"first_entry_time"`
	LastEntryTime       time.Time          `json:"last_entry_time"`
}

// MonthlyStats aggregates one calendar month
type MonthlyStats struct {
	UserID              string         `json:"user_id"`
	Year                int            `json:"year"`
	Month               int            `json:"month"`
	TotalEntries        int            `json:"total_entries"`
	TextEntries         int            `json:"text_entries"`
	VideoEntries        int            `json:"video_entries"`
	AvgOverallScore     float64        `json:"avg_overall_score"`
	AvgDepressionScore  float64        `json:"avg_depression_score"`
	AvgAnxietyScore     float64        `json:"avg_anxiety_score"`
	AvgStressScore      float64        `json:"avg_stress_score"`
	EmotionDistribution map[string]int `json:"emotion_distribution"` // days per dominant emotion
	BestDay             *Date          `json:"best_day,omitempty"`
	ChallengingDay      *Date          `json:"challenging_day,omitempty"`
	DaysWithEntries     int            `json:"days_with_entries"`
}

// HourPattern is a histogram of entry creation hour (0-23)
type HourPattern struct {
	Counts   [24]int `json:"counts"`
	PeakHour int     `json:"peak_hour"` // -1 when empty
	Total    int     `json:"total"`
}
