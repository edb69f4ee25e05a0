package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"fuelplanner/internal/app"
	"fuelplanner/internal/session"
	"fuelplanner/internal/timeline"
	"fuelplanner/internal/validate"
)

var (
	planFlags      raceFlags
	planID         string
	planToken      string
	planSource     string
	planEnforceCap bool
	planJSON       bool
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Edit and inspect a race plan",
	Long: "Each plan subcommand opens the plan, applies one change, and saves before exiting.\n" +
		"Hours and entries are numbered from 1. Without --token (or FUELPLAN_TOKEN) the plan is a guest plan and is never saved.",
}

// withSession opens the plan named by the flags, runs fn, and flushes any
// pending save before closing.
func withSession(cmd *cobra.Command, fn func(a *app.App, s *session.Session) error) error {
	if planID == "" {
		return fmt.Errorf("--id is required")
	}
	race, athlete, weather, err := planFlags.contexts()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	token := planToken
	if token == "" {
		token = os.Getenv("FUELPLAN_TOKEN")
	}
	s, err := a.OpenSession(ctx, token, session.Params{
		RacePlanID:     planID,
		Race:           race,
		Athlete:        athlete,
		Weather:        weather,
		EnforceCeiling: planEnforceCap,
	})
	if err != nil {
		return err
	}
	defer s.Close()
	if s.Guest() {
		fmt.Fprintln(cmd.ErrOrStderr(), "guest session: changes are not saved")
	}

	if err := fn(a, s); err != nil {
		return err
	}
	return s.Flush(context.WithoutCancel(ctx))
}

// dispatch applies one intent and prints the hour it touched.
func dispatch(cmd *cobra.Command, in session.Intent, hourIndex int) error {
	return withSession(cmd, func(a *app.App, s *session.Session) error {
		if !s.Dispatch(in) {
			return fmt.Errorf("nothing changed: check the hour and entry numbers and the product id")
		}
		if hourIndex >= 0 {
			printHour(cmd.OutOrStdout(), s.Hours()[hourIndex], s)
		}
		return nil
	})
}

var planShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print every hour with its validation",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(a *app.App, s *session.Session) error {
			out := cmd.OutOrStdout()
			if planJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(s.Export())
			}
			for _, h := range s.Hours() {
				printHour(out, h, s)
			}
			for _, w := range s.Warnings() {
				fmt.Fprintf(out, "WARNING: %s\n", w)
			}
			for _, r := range s.Recommendations() {
				fmt.Fprintf(out, "OK: %s\n", r)
			}
			return nil
		})
	},
}

var planTotalsCmd = &cobra.Command{
	Use:   "totals",
	Short: "Print running totals against race targets",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(a *app.App, s *session.Session) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(s.RunningTotals())
		})
	},
}

var planAddCmd = &cobra.Command{
	Use:   "add <hour> <product-id>",
	Short: "Add one serving of a product to an hour",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		hour, err := position(args[0])
		if err != nil {
			return err
		}
		src, err := sourceFlag()
		if err != nil {
			return err
		}
		return dispatch(cmd, session.AddProduct{HourIndex: hour, ProductID: args[1], Source: src}, hour)
	},
}

var planRemoveCmd = &cobra.Command{
	Use:   "remove <hour> <entry>",
	Short: "Remove an entry from an hour",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		hour, entry, err := hourEntry(args)
		if err != nil {
			return err
		}
		return dispatch(cmd, session.RemoveProduct{HourIndex: hour, EntryIndex: entry}, hour)
	},
}

var planQtyCmd = &cobra.Command{
	Use:   "qty <hour> <entry> <quantity>",
	Short: "Set an entry's quantity (minimum 1)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		hour, entry, err := hourEntry(args[:2])
		if err != nil {
			return err
		}
		q, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("%q is not a whole number", args[2])
		}
		return dispatch(cmd, session.UpdateQuantity{HourIndex: hour, EntryIndex: entry, Quantity: q}, hour)
	},
}

var planFluidCmd = &cobra.Command{
	Use:   "fluid <hour> <entry> <ml>",
	Short: "Set the total fluid of a drink-mix entry",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		hour, entry, err := hourEntry(args[:2])
		if err != nil {
			return err
		}
		ml, err := volume(args[2])
		if err != nil {
			return err
		}
		return dispatch(cmd, session.UpdateFluid{HourIndex: hour, EntryIndex: entry, Ml: ml}, hour)
	},
}

var planWaterCmd = &cobra.Command{
	Use:   "water <hour> <ml>",
	Short: "Set plain water for an hour",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		hour, err := position(args[0])
		if err != nil {
			return err
		}
		ml, err := volume(args[1])
		if err != nil {
			return err
		}
		src, err := sourceFlag()
		if err != nil {
			return err
		}
		return withSession(cmd, func(a *app.App, s *session.Session) error {
			if !s.Dispatch(session.SetWater{HourIndex: hour, Ml: ml}) {
				return fmt.Errorf("no hour %d in this plan", hour+1)
			}
			if src != "" {
				s.Dispatch(session.SetWaterSource{HourIndex: hour, Source: src})
			}
			printHour(cmd.OutOrStdout(), s.Hours()[hour], s)
			return nil
		})
	},
}

var planClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every entry and all water",
	RunE: func(cmd *cobra.Command, args []string) error {
		return dispatch(cmd, session.ClearPlan{}, -1)
	},
}

var planExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the per-hour export JSON to the export directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(a *app.App, s *session.Session) error {
			path, err := a.Export(s)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s\n", path)
			return nil
		})
	},
}

var planPackingCmd = &cobra.Command{
	Use:   "packing",
	Short: "Print what to carry, leave in drop bags, and pick up",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(a *app.App, s *session.Session) error {
			_, err := io.WriteString(cmd.OutOrStdout(), a.Packing(s).Text())
			return err
		})
	},
}

var planBriefCmd = &cobra.Command{
	Use:   "brief",
	Short: "Ask the configured LLM for a race-day briefing",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(a *app.App, s *session.Session) error {
			res, err := a.Brief(cmd.Context(), s)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Text)
			return nil
		})
	},
}

func printHour(w io.Writer, h timeline.Hour, s *session.Session) {
	status := validate.StatusOnTarget
	if rep := s.Report(); h.Number-1 < len(rep.Hours) {
		status = rep.Hours[h.Number-1].Overall
	}
	label := h.Elapsed
	if h.StartTime != "" {
		label += " " + h.StartTime
	}
	fmt.Fprintf(w, "Hour %d (%s) [%s] carbs %.0f g, fluid %.0f ml, sodium %.0f mg\n",
		h.Number, label, status, h.Totals.Carbs, h.Totals.Fluid, h.Totals.Sodium)
	for i, e := range h.Entries {
		name := e.ProductID
		if p, ok := s.Lookup().Product(e.ProductID); ok {
			name = p.Brand + " " + p.Name
		}
		fmt.Fprintf(w, "  %d. %dx %s (%s)", i+1, e.Quantity, name, e.Source)
		if e.FluidMl != nil {
			fmt.Fprintf(w, " in %.0f ml", *e.FluidMl)
		}
		fmt.Fprintln(w)
	}
	if h.WaterMl > 0 {
		fmt.Fprintf(w, "  water %.0f ml (%s)\n", h.WaterMl, h.WaterSource)
	}
}

func position(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%q is not a valid hour or entry number", raw)
	}
	return n - 1, nil
}

func hourEntry(args []string) (int, int, error) {
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

func sourceFlag() (timeline.Source, error) {
	if planSource == "" {
		return "", nil
	}
	src := timeline.Source(planSource)
	if !src.Valid() {
		return "", fmt.Errorf("unknown --source %q", planSource)
	}
	return src, nil
}

func init() {
	planFlags.register(planCmd, true)
	planCmd.PersistentFlags().StringVar(&planID, "id", "", "Race plan id")
	planCmd.PersistentFlags().StringVar(&planToken, "token", "", "Session token (default $FUELPLAN_TOKEN)")
	planCmd.PersistentFlags().StringVar(&planSource, "source", "", "Provenance: personal, aid_station, drop_bag")
	planCmd.PersistentFlags().BoolVar(&planEnforceCap, "enforce-ceiling", false, "Warn when an hour exceeds its absorbable carbohydrate")
	planShowCmd.Flags().BoolVar(&planJSON, "json", false, "Print the per-hour export JSON")

	planCmd.AddCommand(
		planShowCmd, planTotalsCmd, planAddCmd, planRemoveCmd, planQtyCmd, planFluidCmd,
		planWaterCmd, planClearCmd, planExportCmd, planPackingCmd, planBriefCmd,
	)
	rootCmd.AddCommand(planCmd)
}

func volume(raw string) (float64, error) {
	ml, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(ml) || math.IsInf(ml, 0) {
		return 0, fmt.Errorf("%q is not a valid volume", raw)
	}
	return ml, nil
}
