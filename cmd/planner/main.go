package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"muscledynamics/workout-planner/internal/app"
	"muscledynamics/workout-planner/internal/client"
	"muscledynamics/workout-planner/internal/config"
	"muscledynamics/workout-planner/internal/wizard"

	cli "github.com/urfave/cli/v3"
)

func main() {
	root := &cli.Command{
		Name:  "planner",
		Usage: "Build a workout from the exercise catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: ".", Usage: "Directory holding config.yaml"},
			&cli.StringFlag{Name: "api", Usage: "Catalog API base URL (overrides client.base_url)"},
			&cli.BoolFlag{Name: "local", Usage: "Query the configured database directly instead of the API"},
		},
		Commands: []*cli.Command{
			wizardCmd(),
			exercisesCmd(),
			showCmd(),
			musclesCmd(),
			equipmentCmd(),
			healthCmd(),
			seedCmd(),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// session is the catalog a command talks to plus its cleanup.
type session struct {
	cfg     config.Config
	catalog wizard.Catalog
	api     *client.Client
	close   func()
}

func openSession(ctx context.Context, cmd *cli.Command) (*session, error) {
	cfg, err := config.LoadConfig(cmd.String("config"))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if cmd.Bool("local") {
		backend, err := app.OpenBackend(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		svc, err := app.NewExerciseService(ctx, &cfg, backend.Repo)
		if err != nil {
			backend.Close()
			return nil, err
		}
		if err := app.SeedIfEmpty(ctx, svc, cfg.Database.SeedFile); err != nil {
			backend.Close()
			return nil, fmt.Errorf("seeding catalog: %w", err)
		}
		return &session{cfg: cfg, catalog: wizard.NewServiceCatalog(svc), close: backend.Close}, nil
	}

	baseURL := cfg.Client.BaseURL
	if u := cmd.String("api"); u != "" {
		baseURL = u
	}
	c := client.New(baseURL, cfg.Client.Timeout)
	return &session{cfg: cfg, catalog: c, api: c, close: func() {}}, nil
}

func stdout(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func stdin(cmd *cli.Command) io.Reader {
	if r := cmd.Root().Reader; r != nil {
		return r
	}
	return os.Stdin
}
