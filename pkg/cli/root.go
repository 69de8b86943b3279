package cli

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Command represents a CLI command
type Command struct {
	Name        string
	Description string
	Run         func(args []string) error
	Subcommands map[string]*Command
	Flags       *flag.FlagSet
}

// NewRootCommand creates the root command
func NewRootCommand() *Command {
	root := &Command{
		Name:        "bizauthz",
		Description: "bizauthz - business-scoped permission engine",
		Subcommands: make(map[string]*Command),
		Flags:       flag.NewFlagSet("bizauthz", flag.ExitOnError),
	}

	// Add subcommands
	root.Subcommands["migrate"] = newMigrateCommand()
	root.Subcommands["seed"] = newSeedCommand()
	root.Subcommands["grants"] = newGrantsCommand()
	root.Subcommands["check"] = newCheckCommand()
	root.Subcommands["serve-metrics"] = newServeMetricsCommand()

	return root
}

// Execute runs the command with the process arguments
func (c *Command) Execute() error {
	return c.ExecuteArgs(os.Args[1:])
}

// ExecuteArgs runs the command with args
func (c *Command) ExecuteArgs(args []string) error {
	if len(args) == 0 {
		return c.usage()
	}

	// Check for help flag
	switch strings.ToLower(args[0]) {
	case "-h", "--help", "help":
		return c.usage()
	}

	// Check for subcommand
	if subcmd, ok := c.Subcommands[args[0]]; ok {
		return subcmd.Run(args[1:])
	}

	return fmt.Errorf("unknown command: %s", args[0])
}

// usage prints the command usage
func (c *Command) usage() error {
	names := make([]string, 0, len(c.Subcommands))
	for name := range c.Subcommands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("Usage: %s <command> [args]\n\n", c.Name)
	fmt.Printf("Commands:\n")
	for _, name := range names {
		fmt.Printf("  %-15s %s\n", name, c.Subcommands[name].Description)
	}
	return nil
}
