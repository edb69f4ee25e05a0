package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"fuelplanner/internal/nutrition"
)

type raceFlags struct {
	minutes     int
	weightKg    float64
	tempF       float64
	humidity    float64
	elevationFt float64
	start       string
	sweat       string
	gut         string
}

func (f *raceFlags) register(cmd *cobra.Command, persistent bool) {
	fs := cmd.Flags()
	if persistent {
		fs = cmd.PersistentFlags()
	}
	fs.IntVar(&f.minutes, "minutes", 0, "Expected race duration in minutes")
	fs.Float64Var(&f.weightKg, "weight", 0, "Athlete weight in kg")
	fs.Float64Var(&f.tempF, "temp", 65, "Race-day temperature in °F")
	fs.Float64Var(&f.humidity, "humidity", 50, "Race-day relative humidity in percent")
	fs.Float64Var(&f.elevationFt, "elevation", 0, "Maximum course elevation in feet")
	fs.StringVar(&f.start, "start", "", "Start time of day (HH:MM)")
	fs.StringVar(&f.sweat, "sweat", string(nutrition.SweatMedium), "Sweat rate: low, medium, high")
	fs.StringVar(&f.gut, "gut", string(nutrition.GutModerate), "Gut training: untrained, moderate, well_trained")
}

func (f *raceFlags) contexts() (nutrition.RaceContext, nutrition.AthleteContext, nutrition.WeatherContext, error) {
	sweat := nutrition.SweatRate(f.sweat)
	switch sweat {
	case nutrition.SweatLow, nutrition.SweatMedium, nutrition.SweatHigh:
	default:
		return nutrition.RaceContext{}, nutrition.AthleteContext{}, nutrition.WeatherContext{}, fmt.Errorf("unknown --sweat %q", f.sweat)
	}
	gut := nutrition.GutTraining(f.gut)
	switch gut {
	case nutrition.GutUntrained, nutrition.GutModerate, nutrition.GutWellTrained:
	default:
		return nutrition.RaceContext{}, nutrition.AthleteContext{}, nutrition.WeatherContext{}, fmt.Errorf("unknown --gut %q", f.gut)
	}
	if f.minutes <= 0 || f.weightKg <= 0 {
		return nutrition.RaceContext{}, nutrition.AthleteContext{}, nutrition.WeatherContext{}, fmt.Errorf("--minutes and --weight must be positive")
	}

	return nutrition.RaceContext{DurationMinutes: f.minutes, MaxElevationFt: f.elevationFt, StartTimeOfDay: f.start},
		nutrition.AthleteContext{WeightKg: f.weightKg, SweatRate: sweat, GutTraining: gut},
		nutrition.WeatherContext{TemperatureF: f.tempF, HumidityPercent: f.humidity},
		nil
}

var targetsFlags raceFlags

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "Compute hourly and race-total fueling targets",
	RunE: func(cmd *cobra.Command, args []string) error {
		race, athlete, weather, err := targetsFlags.contexts()
		if err != nil {
			return err
		}
		h := nutrition.ComputeHourlyTargets(race, athlete, weather)
		t := nutrition.ComputeTotalTargets(h, race.DurationHours())

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NUTRIENT\tPER HOUR\tRANGE\tRACE TOTAL")
		fmt.Fprintf(w, "Carbs (g)\t%.0f\t%.0f-%.0f\t%.0f\n", h.CarbsGramsTarget, h.CarbsGramsMin, h.CarbsGramsMax, t.CarbsGramsTarget)
		fmt.Fprintf(w, "Fluid (ml)\t%.0f\t%.0f-%.0f\t%.0f\n", h.FluidMlTarget, h.FluidMlMin, h.FluidMlMax, t.FluidMlTarget)
		fmt.Fprintf(w, "Sodium (mg)\t%.0f\t%.0f-%.0f\t%.0f\n", h.SodiumMgTarget, h.SodiumMgMin, h.SodiumMgMax, t.SodiumMgTarget)
		fmt.Fprintf(w, "Calories\t%.0f\t-\t%.0f\n", h.CaloriesTarget, t.CaloriesTarget)
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\n%d hours\n", t.Hours)
		return nil
	},
}

func init() {
	targetsFlags.register(targetsCmd, false)
	rootCmd.AddCommand(targetsCmd)
}
