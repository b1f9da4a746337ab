// Command leaguectl is the LeagueCore operations CLI.
//
// Usage:
//
//	leaguectl schedule generate --tenant org1 --season s1 --teams teams.json --params params.json
//	leaguectl schedule preview --tenant org1 --season s1 --teams teams.json
//	leaguectl conflicts check --tenant org1 --season s1
//	leaguectl officials optimize --tenant org1 --season s1 --persist
//	leaguectl payroll export --tenant org1 --from 2026-06-01 --to 2026-06-30 --out payroll.csv
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/courtly/leaguecore/internal/clock"
	"github.com/courtly/leaguecore/internal/config"
	"github.com/courtly/leaguecore/internal/conflict"
	"github.com/courtly/leaguecore/internal/domain"
	"github.com/courtly/leaguecore/internal/officials"
	"github.com/courtly/leaguecore/internal/schedule"
	"github.com/courtly/leaguecore/internal/storage"
	"github.com/courtly/leaguecore/internal/storage/postgres"
	"github.com/courtly/leaguecore/internal/travel"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "leaguectl",
		Short: "LeagueCore scheduling operations CLI",
	}

	root.AddCommand(scheduleCmd())
	root.AddCommand(conflictsCmd())
	root.AddCommand(officialsCmd())
	root.AddCommand(payrollCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// run opens config and the database pool, then hands off with a signal-aware
// context.
func run(fn func(ctx context.Context, cfg *config.Config, store storage.Store) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	pool, err := postgres.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	return fn(ctx, cfg, postgres.NewStore(pool))
}

func newDetector(cfg *config.Config) *conflict.Detector {
	return conflict.New(conflict.Config{
		BufferMinutes:      cfg.BufferMinutes,
		MinRestHours:       cfg.MinRestHours,
		MaxTravelMinutes:   cfg.MaxTravelMin,
		DangerousHourStart: config.DangerousHoursStart,
		DangerousHourEnd:   config.DangerousHoursEnd,
	}, travel.NewEstimator(nil), clock.Real{})
}

// --------------------------------------------------------------------------
// schedule command
// --------------------------------------------------------------------------

func scheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Generate and preview season schedules",
	}
	cmd.AddCommand(scheduleRunCmd("generate", "Generate a schedule plan and print it as JSON"))
	cmd.AddCommand(scheduleRunCmd("preview", "Preview a schedule plan without side effects"))
	return cmd
}

func scheduleRunCmd(use, short string) *cobra.Command {
	var tenant, seasonID, teamsFile, paramsFile string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			if tenant == "" || seasonID == "" || teamsFile == "" {
				return fmt.Errorf("--tenant, --season, and --teams are required")
			}
			return run(func(ctx context.Context, cfg *config.Config, store storage.Store) error {
				var teams []domain.Team
				if err := readJSONFile(teamsFile, &teams); err != nil {
					return err
				}
				var params schedule.Params
				if paramsFile != "" {
					if err := readJSONFile(paramsFile, &params); err != nil {
						return err
					}
				}

				in, err := loadScheduleInputs(ctx, store, tenant, seasonID)
				if err != nil {
					return err
				}
				in.Teams = teams

				gen := schedule.NewGenerator(newDetector(cfg), nil, clock.Real{}, logger, cfg.PlacerWorkers)
				start := time.Now()
				plan, err := gen.Generate(ctx, *in, params)
				if err != nil {
					return err
				}
				logger.Info("Generation finished",
					"duration", time.Since(start).Round(time.Millisecond),
					"placed", plan.Statistics.Scheduled,
					"total", plan.Statistics.TotalGames)
				return printJSON(plan)
			})
		},
	}
	cmd.Flags().StringVar(&tenant, "tenant", "", "Organization ID")
	cmd.Flags().StringVar(&seasonID, "season", "", "Season ID")
	cmd.Flags().StringVar(&teamsFile, "teams", "", "Path to a JSON file of teams")
	cmd.Flags().StringVar(&paramsFile, "params", "", "Path to a JSON file of generation params")
	return cmd
}

func loadScheduleInputs(ctx context.Context, store storage.Store, tenant, seasonID string) (*schedule.Inputs, error) {
	season, err := store.Seasons().Get(ctx, tenant, seasonID)
	if err != nil {
		return nil, err
	}
	venues, err := store.Venues().ListActive(ctx, tenant)
	if err != nil {
		return nil, err
	}
	availability := make(map[string][]domain.VenueAvailability, len(venues))
	for _, v := range venues {
		rules, err := store.VenueAvailability().ListByVenue(ctx, v.ID)
		if err != nil {
			return nil, err
		}
		if len(rules) > 0 {
			availability[v.ID] = rules
		}
	}
	blackouts, err := store.Blackouts().ListBySeason(ctx, tenant, seasonID)
	if err != nil {
		return nil, err
	}
	return &schedule.Inputs{
		Season:       season,
		Venues:       venues,
		Availability: availability,
		Blackouts:    blackouts,
	}, nil
}

// --------------------------------------------------------------------------
// conflicts command
// --------------------------------------------------------------------------

func conflictsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "conflicts",
		Short: "Validate published schedules",
	}
	cmd.AddCommand(conflictsCheckCmd())
	return cmd
}

func conflictsCheckCmd() *cobra.Command {
	var tenant, seasonID string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run conflict detection over a season's games",
		RunE: func(cmd *cobra.Command, args []string) error {
			if tenant == "" || seasonID == "" {
				return fmt.Errorf("--tenant and --season are required")
			}
			return run(func(ctx context.Context, cfg *config.Config, store storage.Store) error {
				in, err := loadScheduleInputs(ctx, store, tenant, seasonID)
				if err != nil {
					return err
				}
				games, err := store.Games().List(ctx, tenant, storage.GameFilter{SeasonID: seasonID})
				if err != nil {
					return err
				}
				assignments, err := store.Assignments().List(ctx, tenant, storage.AssignmentFilter{})
				if err != nil {
					return err
				}

				venueMap := make(map[string]*domain.Venue, len(in.Venues))
				for i := range in.Venues {
					venueMap[in.Venues[i].ID] = &in.Venues[i]
				}
				conflicts, err := newDetector(cfg).Detect(ctx, conflict.Input{
					Games:        games,
					Venues:       venueMap,
					Availability: in.Availability,
					Blackouts:    in.Blackouts,
					Assignments:  assignments,
					Location:     in.Season.Location(),
				})
				if err != nil {
					return err
				}
				logger.Info("Conflict check finished", "games", len(games), "conflicts", len(conflicts))
				return printJSON(conflicts)
			})
		},
	}
	cmd.Flags().StringVar(&tenant, "tenant", "", "Organization ID")
	cmd.Flags().StringVar(&seasonID, "season", "", "Season ID")
	return cmd
}

// --------------------------------------------------------------------------
// officials command
// --------------------------------------------------------------------------

func officialsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "officials",
		Short: "Officials assignment tools",
	}
	cmd.AddCommand(officialsOptimizeCmd())
	return cmd
}

func officialsOptimizeCmd() *cobra.Command {
	var tenant, seasonID string
	var persist bool
	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Assign officials to a season's scheduled games",
		RunE: func(cmd *cobra.Command, args []string) error {
			if tenant == "" || seasonID == "" {
				return fmt.Errorf("--tenant and --season are required")
			}
			return run(func(ctx context.Context, cfg *config.Config, store storage.Store) error {
				season, err := store.Seasons().Get(ctx, tenant, seasonID)
				if err != nil {
					return err
				}
				games, err := store.Games().List(ctx, tenant, storage.GameFilter{
					SeasonID: seasonID,
					Status:   domain.GameScheduled,
				})
				if err != nil {
					return err
				}
				divisions, err := store.Divisions().List(ctx, tenant)
				if err != nil {
					return err
				}
				divMap := make(map[string]*domain.Division, len(divisions))
				for i := range divisions {
					divMap[divisions[i].ID] = &divisions[i]
				}
				venues, err := store.Venues().List(ctx, tenant)
				if err != nil {
					return err
				}
				venueMap := make(map[string]*domain.Venue, len(venues))
				for i := range venues {
					venueMap[venues[i].ID] = &venues[i]
				}
				pool, err := store.Officials().ListActive(ctx, tenant)
				if err != nil {
					return err
				}
				availability := make(map[string][]domain.OfficialAvailability, len(pool))
				for _, off := range pool {
					windows, err := store.OfficialAvailability().ListByOfficial(ctx, off.ID)
					if err != nil {
						return err
					}
					if len(windows) > 0 {
						availability[off.ID] = windows
					}
				}
				existing, err := store.Assignments().List(ctx, tenant, storage.AssignmentFilter{})
				if err != nil {
					return err
				}

				opt := officials.NewOptimizer(travel.NewEstimator(nil), clock.Real{}, logger)
				start := time.Now()
				result := opt.Optimize(ctx, officials.Input{
					Games:        games,
					Divisions:    divMap,
					Venues:       venueMap,
					Officials:    pool,
					Availability: availability,
					Existing:     existing,
					Location:     season.Location(),
				}, officials.DefaultConstraints())
				logger.Info("Optimization finished",
					"duration", time.Since(start).Round(time.Millisecond),
					"assignments", result.Statistics.AssignmentsCreated,
					"success", result.Success)

				if persist && len(result.Assignments) > 0 {
					if err := store.Assignments().BulkInsert(ctx, tenant, result.Assignments); err != nil {
						return fmt.Errorf("persist assignments: %w", err)
					}
					logger.Info("Assignments persisted", "count", len(result.Assignments))
				}
				return printJSON(result)
			})
		},
	}
	cmd.Flags().StringVar(&tenant, "tenant", "", "Organization ID")
	cmd.Flags().StringVar(&seasonID, "season", "", "Season ID")
	cmd.Flags().BoolVar(&persist, "persist", false, "Write the resulting assignments")
	return cmd
}

// --------------------------------------------------------------------------
// payroll command
// --------------------------------------------------------------------------

func payrollCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payroll",
		Short: "Payroll exports",
	}
	cmd.AddCommand(payrollExportCmd())
	return cmd
}

func payrollExportCmd() *cobra.Command {
	var tenant, fromStr, toStr, outFile string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export pay for completed games as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			if tenant == "" || fromStr == "" || toStr == "" {
				return fmt.Errorf("--tenant, --from, and --to are required")
			}
			from, err := time.Parse("2006-01-02", fromStr)
			if err != nil {
				return fmt.Errorf("invalid --from date: %w", err)
			}
			to, err := time.Parse("2006-01-02", toStr)
			if err != nil {
				return fmt.Errorf("invalid --to date: %w", err)
			}
			to = to.AddDate(0, 0, 1)

			return run(func(ctx context.Context, cfg *config.Config, store storage.Store) error {
				assignments, err := store.Assignments().List(ctx, tenant, storage.AssignmentFilter{
					DateFrom: from,
					DateTo:   to,
				})
				if err != nil {
					return err
				}
				games := make(map[string]domain.Game, len(assignments))
				for _, a := range assignments {
					if _, seen := games[a.GameID]; seen {
						continue
					}
					g, err := store.Games().Get(ctx, tenant, a.GameID)
					if err != nil {
						return err
					}
					games[a.GameID] = *g
				}

				loc, lerr := time.LoadLocation(cfg.DefaultTZ)
				if lerr != nil {
					loc = time.UTC
				}
				rows := officials.BuildPayroll(assignments, games, from, to, loc)

				out := os.Stdout
				if outFile != "" {
					f, err := os.Create(outFile)
					if err != nil {
						return err
					}
					defer f.Close()
					out = f
				}
				if err := officials.WritePayrollCSV(out, rows); err != nil {
					return err
				}
				logger.Info("Payroll exported", "rows", len(rows), "out", orStdout(outFile))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&tenant, "tenant", "", "Organization ID")
	cmd.Flags().StringVar(&fromStr, "from", "", "Window start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&toStr, "to", "", "Window end, inclusive (YYYY-MM-DD)")
	cmd.Flags().StringVar(&outFile, "out", "", "Output file; empty writes to stdout")
	return cmd
}

// --------------------------------------------------------------------------
// helpers
// --------------------------------------------------------------------------

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func orStdout(path string) string {
	if path == "" {
		return "stdout"
	}
	return path
}
