package telegram

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"fuelplanner/internal/nutrition"
	"fuelplanner/internal/session"
	"fuelplanner/internal/timeline"
)

const planUsage = "/plan <race-plan-id> <minutes> <weightKg> <tempF> <humidity%> [HH:MM] [sweat=low|medium|high] [gut=untrained|moderate|well_trained] [elev=<ft>]"

var clockPattern = regexp.MustCompile(`^\d{1,2}:\d{2}$`)

// Command is a slash command split into its name and arguments.
type Command struct {
	Name string
	Args []string
}

// ParseCommand splits "/qty@fuelbot 2 1 3" into {qty [2 1 3]}. Text that is
// not a command reports false.
func ParseCommand(text string) (Command, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return Command{}, false
	}
	name := strings.TrimPrefix(fields[0], "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	if name == "" {
		return Command{}, false
	}
	return Command{Name: strings.ToLower(name), Args: fields[1:]}, true
}

// PlanArgs are the inputs of /plan.
type PlanArgs struct {
	RacePlanID string
	Context    ChatContext
}

// ParsePlanArgs reads the /plan arguments. Sweat rate and gut training
// default to medium and moderate.
func ParsePlanArgs(args []string) (PlanArgs, error) {
	if len(args) < 5 {
		return PlanArgs{}, fmt.Errorf("usage: %s", planUsage)
	}

	nums := make([]float64, 4)
	for i, raw := range args[1:5] {
		v, err := parseFinite(raw)
		if err != nil || v < 0 {
			return PlanArgs{}, fmt.Errorf("%q is not a valid number", raw)
		}
		nums[i] = v
	}
	if nums[0] < 1 || nums[1] <= 0 {
		return PlanArgs{}, fmt.Errorf("duration and weight must be positive")
	}

	pa := PlanArgs{
		RacePlanID: args[0],
		Context: ChatContext{
			Race:    nutrition.RaceContext{DurationMinutes: int(nums[0])},
			Athlete: nutrition.AthleteContext{WeightKg: nums[1], SweatRate: nutrition.SweatMedium, GutTraining: nutrition.GutModerate},
			Weather: nutrition.WeatherContext{TemperatureF: nums[2], HumidityPercent: nums[3]},
		},
	}

	for _, opt := range args[5:] {
		key, value, found := strings.Cut(opt, "=")
		switch {
		case !found && clockPattern.MatchString(opt):
			pa.Context.Race.StartTimeOfDay = opt
		case key == "sweat":
			switch s := nutrition.SweatRate(value); s {
			case nutrition.SweatLow, nutrition.SweatMedium, nutrition.SweatHigh:
				pa.Context.Athlete.SweatRate = s
			default:
				return PlanArgs{}, fmt.Errorf("unknown sweat rate %q", value)
			}
		case key == "gut":
			switch g := nutrition.GutTraining(value); g {
			case nutrition.GutUntrained, nutrition.GutModerate, nutrition.GutWellTrained:
				pa.Context.Athlete.GutTraining = g
			default:
				return PlanArgs{}, fmt.Errorf("unknown gut training %q", value)
			}
		case key == "elev":
			ft, err := parseFinite(value)
			if err != nil {
				return PlanArgs{}, fmt.Errorf("%q is not a valid elevation", value)
			}
			pa.Context.Race.MaxElevationFt = ft
		default:
			return PlanArgs{}, fmt.Errorf("unknown option %q", opt)
		}
	}
	return pa, nil
}

// IntentFor maps an editing command to a session intent. Hours and entries
// are numbered from 1 in chat.
func IntentFor(cmd Command) (session.Intent, error) {
	a := cmd.Args
	switch cmd.Name {
	case "add":
		if len(a) < 2 || len(a) > 3 {
			return nil, fmt.Errorf("usage: /add <hour> <product-id> [personal|aid_station|drop_bag]")
		}
		hour, err := position(a[0])
		if err != nil {
			return nil, err
		}
		in := session.AddProduct{HourIndex: hour, ProductID: a[1]}
		if len(a) == 3 {
			if in.Source, err = source(a[2]); err != nil {
				return nil, err
			}
		}
		return in, nil
	case "remove":
		hour, entry, err := hourEntry(a, "/remove <hour> <entry>")
		if err != nil {
			return nil, err
		}
		return session.RemoveProduct{HourIndex: hour, EntryIndex: entry}, nil
	case "qty":
		if len(a) != 3 {
			return nil, fmt.Errorf("usage: /qty <hour> <entry> <quantity>")
		}
		hour, entry, err := hourEntry(a[:2], "")
		if err != nil {
			return nil, err
		}
		q, err := strconv.Atoi(a[2])
		if err != nil {
			return nil, fmt.Errorf("%q is not a whole number", a[2])
		}
		return session.UpdateQuantity{HourIndex: hour, EntryIndex: entry, Quantity: q}, nil
	case "fluid":
		if len(a) != 3 {
			return nil, fmt.Errorf("usage: /fluid <hour> <entry> <ml>")
		}
		hour, entry, err := hourEntry(a[:2], "")
		if err != nil {
			return nil, err
		}
		ml, err := millilitres(a[2])
		if err != nil {
			return nil, err
		}
		return session.UpdateFluid{HourIndex: hour, EntryIndex: entry, Ml: ml}, nil
	case "water":
		if len(a) != 2 {
			return nil, fmt.Errorf("usage: /water <hour> <ml>")
		}
		hour, err := position(a[0])
		if err != nil {
			return nil, err
		}
		ml, err := millilitres(a[1])
		if err != nil {
			return nil, err
		}
		return session.SetWater{HourIndex: hour, Ml: ml}, nil
	case "source":
		if len(a) != 2 {
			return nil, fmt.Errorf("usage: /source <hour> <personal|aid_station|drop_bag>")
		}
		hour, err := position(a[0])
		if err != nil {
			return nil, err
		}
		src, err := source(a[1])
		if err != nil {
			return nil, err
		}
		return session.SetWaterSource{HourIndex: hour, Source: src}, nil
	case "clear":
		return session.ClearPlan{}, nil
	}
	return nil, fmt.Errorf("unknown command /%s", cmd.Name)
}

// Inline keyboard payloads. Hour indexes are zero-based; Telegram caps
// callback data at 64 bytes.
const (
	callbackAdd    = "add"
	callbackSelect = "sel"
)

func addCallback(hourIndex int, productID string) string {
	return fmt.Sprintf("%s|%d|%s", callbackAdd, hourIndex, productID)
}

func selectCallback(hourIndex int) string {
	return fmt.Sprintf("%s|%d", callbackSelect, hourIndex)
}

// ParseCallback decodes an inline keyboard payload into the intent it carries.
func ParseCallback(data string) (session.Intent, error) {
	parts := strings.Split(data, "|")
	switch {
	case parts[0] == callbackAdd && len(parts) == 3 && parts[2] != "":
		hour, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("bad hour in callback %q", data)
		}
		return session.AddProduct{HourIndex: hour, ProductID: parts[2]}, nil
	case parts[0] == callbackSelect && len(parts) == 2:
		hour, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("bad hour in callback %q", data)
		}
		return session.SelectHour{HourIndex: hour}, nil
	}
	return nil, fmt.Errorf("unknown callback %q", data)
}

func position(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%q is not a valid hour or entry number", raw)
	}
	return n - 1, nil
}

func hourEntry(args []string, usage string) (int, int, error) {
	if len(args) != 2 {
		return 0, 0, fmt.Errorf("usage: %s", usage)
	}
	hour, err := position(args[0])
	if err != nil {
		return 0, 0, err
	}
	entry, err := position(args[1])
	if err != nil {
		return 0, 0, err
	}
	return hour, entry, nil
}

// parseFinite rejects NaN and infinities, which ParseFloat accepts.
func parseFinite(raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not finite", raw)
	}
	return v, nil
}

func millilitres(raw string) (float64, error) {
	ml, err := parseFinite(strings.TrimSuffix(raw, "ml"))
	if err != nil {
		return 0, fmt.Errorf("%q is not a valid volume", raw)
	}
	return ml, nil
}

func source(raw string) (timeline.Source, error) {
	s := timeline.Source(strings.ToLower(raw))
	if !s.Valid() {
		return "", fmt.Errorf("unknown source %q", raw)
	}
	return s, nil
}
