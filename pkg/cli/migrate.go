package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/bizauthz/pkg/catalog"
	"github.com/platinummonkey/bizauthz/pkg/rbac"
)

func newMigrateCommand() *Command {
	cmd := &Command{
		Name:        "migrate",
		Description: "Apply pending catalog migrations",
		Flags:       flag.NewFlagSet("migrate", flag.ExitOnError),
		Run:         runMigrate,
	}
	cmd.Flags.Bool("list", false, "List known migrations without applying them")
	return cmd
}

func runMigrate(args []string) error {
	cmd := newMigrateCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	if cmd.Flags.Lookup("list").Value.String() == "true" {
		for _, m := range catalog.GetMigrations() {
			fmt.Printf("%3d  %s\n", m.Version, m.Description)
		}
		return nil
	}

	ctx := context.Background()
	env, err := openEnvironment(ctx, nil)
	if err != nil {
		return err
	}
	defer env.Close()

	if err := catalog.RunMigrations(ctx, env.db, env.logger); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	env.log.Info("catalog schema is up to date")
	return nil
}

func newSeedCommand() *Command {
	cmd := &Command{
		Name:        "seed",
		Description: "Migrate and create system permissions from the grant table",
		Flags:       flag.NewFlagSet("seed", flag.ExitOnError),
		Run:         runSeed,
	}
	cmd.Flags.Bool("dry-run", false, "Seed an in-memory catalog and print what would be created")
	return cmd
}

func runSeed(args []string) error {
	cmd := newSeedCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()

	if cmd.Flags.Lookup("dry-run").Value.String() == "true" {
		m := rbac.NewManager(catalog.NewMemoryRepository(), rbac.DefaultConfig())
		created, err := m.SeedSystemPermissions(ctx)
		if err != nil {
			return err
		}
		for _, input := range m.Resolver().Hierarchy().SystemPermissions() {
			fmt.Printf("%-24s %s\n", input.Name, input.DisplayName)
		}
		fmt.Printf("\n%d system permissions\n", created)
		return nil
	}

	env, err := openEnvironment(ctx, nil)
	if err != nil {
		return err
	}
	defer env.Close()

	if err := env.manager.Initialize(ctx, env.db); err != nil {
		return err
	}
	stats, err := env.manager.GetStats(ctx)
	if err != nil {
		return err
	}
	env.log.WithFields(logrus.Fields{
		"total":  stats.Total,
		"system": stats.System,
		"custom": stats.Custom,
	}).Info("catalog seeded")
	return nil
}
