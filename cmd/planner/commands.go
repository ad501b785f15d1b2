package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"muscledynamics/workout-planner/internal/app"
	"muscledynamics/workout-planner/internal/config"
	"muscledynamics/workout-planner/internal/domain"
	"muscledynamics/workout-planner/internal/wizard"

	cli "github.com/urfave/cli/v3"
)

func wizardCmd() *cli.Command {
	return &cli.Command{
		Name:  "wizard",
		Usage: "Walk through equipment, muscles and exercises to build a workout",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "equipment", Aliases: []string{"e"}, Usage: "Preselect equipment (repeatable)"},
			&cli.StringSliceFlag{Name: "muscle", Aliases: []string{"m"}, Usage: "Preselect muscle groups (repeatable)"},
			&cli.BoolFlag{Name: "explicit", Usage: "Pick exercises one by one instead of keeping the whole list"},
			&cli.BoolFlag{Name: "auto", Usage: "Advance through every step without prompting"},
			&cli.StringFlag{Name: "out", Usage: "Write the finished workout as JSON to this file (- for stdout)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := openSession(ctx, cmd)
			if err != nil {
				return err
			}
			defer s.close()

			mode := wizard.ModeImplicit
			if cmd.Bool("explicit") {
				mode = wizard.ModeExplicit
			}
			ctrl := wizard.NewController(s.catalog, wizard.Options{
				Mode:    mode,
				Limit:   s.cfg.Catalog.DefaultLimit,
				Timeout: s.cfg.Client.Timeout,
			})

			for _, e := range cmd.StringSlice("equipment") {
				if err := ctrl.ToggleEquipment(e); err != nil {
					return err
				}
			}
			for _, m := range cmd.StringSlice("muscle") {
				if err := ctrl.ToggleMuscle(m); err != nil {
					return err
				}
			}

			out := stdout(cmd)
			var w *wizard.Workout
			if cmd.Bool("auto") {
				w, err = runAuto(ctx, ctrl)
			} else {
				w, err = newPrompt(stdin(cmd), out, ctrl).run(ctx)
			}
			if err != nil || w == nil {
				return err
			}
			return exportWorkout(out, cmd.String("out"), w)
		},
	}
}

// runAuto advances until the summary, failing on the first guard or query error.
func runAuto(ctx context.Context, ctrl *wizard.Controller) (*wizard.Workout, error) {
	for ctrl.Step() != wizard.StepSummary {
		if err := ctrl.Advance(ctx); err != nil {
			return nil, errors.New(domain.Message(err))
		}
	}
	return ctrl.Workout(), nil
}

// exportWorkout writes w as JSON to path, or to out when path is "-".
func exportWorkout(out io.Writer, path string, w *wizard.Workout) error {
	switch path {
	case "":
		return nil
	case "-":
		return w.WriteJSON(out)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := w.WriteJSON(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func exercisesCmd() *cli.Command {
	return &cli.Command{
		Name:  "exercises",
		Usage: "Run one filter query and print the result page",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "equipment", Aliases: []string{"e"}},
			&cli.StringSliceFlag{Name: "muscle", Aliases: []string{"m"}},
			&cli.StringFlag{Name: "difficulty"},
			&cli.IntFlag{Name: "limit"},
			&cli.IntFlag{Name: "offset"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			criteria, err := domain.ParseCriteria(cmd.StringSlice("equipment"), cmd.StringSlice("muscle"), cmd.String("difficulty"))
			if err != nil {
				return err
			}
			s, err := openSession(ctx, cmd)
			if err != nil {
				return err
			}
			defer s.close()

			page, err := s.catalog.Exercises(ctx, criteria, domain.Pagination{
				Limit:  int(cmd.Int("limit")),
				Offset: int(cmd.Int("offset")),
			})
			if err != nil {
				return err
			}
			out := stdout(cmd)
			if len(page.Items) == 0 {
				fmt.Fprintln(out, "No exercises found for selected criteria. Try different selections.")
				return nil
			}
			printList(out, page.Items, nil)
			fmt.Fprintf(out, "%sShowing %d-%d of %d%s\n", dim, page.Offset+1, page.Offset+len(page.Items), page.Total, reset)
			return nil
		},
	}
}

func showCmd() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Print one exercise",
		ArgsUsage: "<id>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id := cmd.Args().First()
			if id == "" {
				return fmt.Errorf("exercise id argument is required")
			}
			s, err := openSession(ctx, cmd)
			if err != nil {
				return err
			}
			defer s.close()

			ex, err := s.catalog.Exercise(ctx, id)
			if err != nil {
				return err
			}
			printDetails(stdout(cmd), ex)
			return nil
		},
	}
}

func musclesCmd() *cli.Command {
	return &cli.Command{
		Name:  "muscles",
		Usage: "List muscle groups in the catalog",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := openSession(ctx, cmd)
			if err != nil {
				return err
			}
			defer s.close()
			tags, err := s.catalog.Muscles(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout(cmd), strings.Join(tags, "\n"))
			return nil
		},
	}
}

func equipmentCmd() *cli.Command {
	return &cli.Command{
		Name:  "equipment",
		Usage: "List equipment in the catalog",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := openSession(ctx, cmd)
			if err != nil {
				return err
			}
			defer s.close()
			tags, err := s.catalog.Equipment(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout(cmd), strings.Join(tags, "\n"))
			return nil
		},
	}
}

func healthCmd() *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Check the catalog API",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := openSession(ctx, cmd)
			if err != nil {
				return err
			}
			defer s.close()
			if s.api == nil {
				return fmt.Errorf("health checks the API; drop --local")
			}
			h, err := s.api.Health(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout(cmd), "status=%s storeConnected=%t at %s\n", h.Status, h.StoreConnected, h.Timestamp.Format("2006-01-02T15:04:05Z07:00"))
			if !h.StoreConnected {
				return fmt.Errorf("catalog store is not connected")
			}
			return nil
		},
	}
}

func seedCmd() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Import a JSON or YAML seed file into the configured database",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Required: true, Usage: "Seed file (free-exercise-db layout)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.LoadConfig(cmd.String("config"))
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if cfg.Database.Driver == config.DriverMemory {
				return fmt.Errorf("seeding the memory driver has no lasting effect; set database.driver")
			}
			backend, err := app.OpenBackend(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer backend.Close()
			svc, err := app.NewExerciseService(ctx, &cfg, backend.Repo)
			if err != nil {
				return err
			}

			res, err := app.Seed(ctx, svc, cmd.String("file"))
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout(cmd), "%simported %d exercises%s, %d skipped\n", green, res.Inserted, reset, len(res.Skipped))
			return nil
		},
	}
}
