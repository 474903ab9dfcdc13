package heatmap

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wonny/mindjournal/internal/contracts"
)

// Levels holds the minimum entry count of activity levels 1..4.
// Level 0 is reserved for days without entries, so Levels[0] must be 1.
type Levels [contracts.MaxActivityLevel]int

// DefaultLevels: 1-2 entries -> 1, 3 -> 2, 4 -> 3, 5+ -> 4
var DefaultLevels = Levels{1, 3, 4, 5}

// Level quantizes an entry count. Monotonic in count; 0 only for count 0.
func (l Levels) Level(count int) int {
	level := 0
	for i, threshold := range l {
		if count >= threshold {
			level = i + 1
		}
	}
	return level
}

// ValidationError reports an invalid threshold setting
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks that thresholds start at 1 and strictly increase
func (l Levels) Validate() error {
	if l[0] != 1 {
		return ValidationError{"activity_levels.min_entries[0]", "must be 1"}
	}
	for i := 1; i < len(l); i++ {
		if l[i] <= l[i-1] {
			return ValidationError{
				Field:   fmt.Sprintf("activity_levels.min_entries[%d]", i),
				Message: fmt.Sprintf("must be greater than %d", l[i-1]),
			}
		}
	}
	return nil
}

// levelsFile is the YAML layout of a thresholds file:
//
//	activity_levels:
//	  min_entries: [1, 3, 4, 5]
type levelsFile struct {
	ActivityLevels struct {
		MinEntries []int `yaml:"min_entries"`
	} `yaml:"activity_levels"`
}

// LoadLevels reads activity thresholds from a YAML file. Unknown fields are rejected.
func LoadLevels(path string) (Levels, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Levels{}, fmt.Errorf("read levels file: %w", err)
	}
	return ParseLevels(data)
}

// ParseLevels decodes and validates a thresholds document
func ParseLevels(data []byte) (Levels, error) {
	var file levelsFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return Levels{}, fmt.Errorf("decode levels: %w", err)
	}

	var levels Levels
	if n := len(file.ActivityLevels.MinEntries); n != len(levels) {
		return Levels{}, ValidationError{
			Field:   "activity_levels.min_entries",
			Message: fmt.Sprintf("expected %d thresholds, got %d", len(levels), n),
		}
	}
	copy(levels[:], file.ActivityLevels.MinEntries)

	if err := levels.Validate(); err != nil {
		return Levels{}, err
	}
	return levels, nil
}
