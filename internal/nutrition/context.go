package nutrition

// SweatRate is the athlete's self-reported sweat loss category.
type SweatRate string

const (
	SweatLow    SweatRate = "low"
	SweatMedium SweatRate = "medium"
	SweatHigh   SweatRate = "high"
)

// GutTraining describes how well the athlete tolerates carbohydrate during exercise.
type GutTraining string

const (
	GutUntrained   GutTraining = "untrained"
	GutModerate    GutTraining = "moderate"
	GutWellTrained GutTraining = "well_trained"
)

// RaceContext is supplied by the hosting wizard for the race being planned.
type RaceContext struct {
	DurationMinutes int     `json:"duration_minutes"`
	MaxElevationFt  float64 `json:"max_elevation_ft"`
	// StartTimeOfDay is "HH:MM" (24h). Empty means hours are labelled by elapsed offset.
	StartTimeOfDay string `json:"start_time_of_day,omitempty"`
}

// DurationHours rounds the race duration up to whole hours.
func (r RaceContext) DurationHours() int {
	if r.DurationMinutes <= 0 {
		return 0
	}
	return (r.DurationMinutes + 59) / 60
}

// AthleteContext describes the athlete.
type AthleteContext struct {
	WeightKg    float64     `json:"weight_kg"`
	SweatRate   SweatRate   `json:"sweat_rate"`
	GutTraining GutTraining `json:"gut_training"`
}

// WeatherContext describes race-day conditions.
type WeatherContext struct {
	TemperatureF    float64 `json:"temperature_f"`
	HumidityPercent float64 `json:"humidity_percent"`
}
