package cli

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/bizauthz/pkg/rbac"
)

// RoleGrants is the exported form of one role's table entry
type RoleGrants struct {
	Role      string       `json:"role" yaml:"role"`
	Rank      int          `json:"rank" yaml:"rank"`
	Universal bool         `json:"universal,omitempty" yaml:"universal,omitempty"`
	Grants    []GrantEntry `json:"grants,omitempty" yaml:"grants,omitempty"`
}

// GrantEntry is one (action, resource) grant
type GrantEntry struct {
	Action   string `json:"action" yaml:"action"`
	Resource string `json:"resource" yaml:"resource"`
	Scoped   bool   `json:"scoped" yaml:"scoped"`
}

func newGrantsCommand() *Command {
	cmd := &Command{
		Name:        "grants",
		Description: "Print the static role grant table",
		Flags:       flag.NewFlagSet("grants", flag.ExitOnError),
		Run:         runGrants,
	}
	cmd.Flags.String("format", "table", "Output format (table, yaml, json)")
	cmd.Flags.String("role", "", "Only print this role")
	return cmd
}

func runGrants(args []string) error {
	cmd := newGrantsCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	format := cmd.Flags.Lookup("format").Value.String()
	role := cmd.Flags.Lookup("role").Value.String()

	export := exportGrants(rbac.DefaultHierarchy(), rbac.Role(role))
	if role != "" && len(export) == 0 {
		return fmt.Errorf("unknown role: %s", role)
	}

	return writeGrants(os.Stdout, export, format)
}

// exportGrants groups the enumerated table by role, in rank order
func exportGrants(h *rbac.Hierarchy, only rbac.Role) []RoleGrants {
	var out []RoleGrants
	index := make(map[rbac.Role]int)

	for _, row := range h.Enumerate() {
		if only != "" && row.Role != only {
			continue
		}
		i, ok := index[row.Role]
		if !ok {
			i = len(out)
			index[row.Role] = i
			out = append(out, RoleGrants{Role: string(row.Role), Rank: row.Rank, Universal: row.Universal})
		}
		if row.Universal {
			continue
		}
		out[i].Grants = append(out[i].Grants, GrantEntry{
			Action:   string(row.Action),
			Resource: string(row.Resource),
			Scoped:   row.Scoped,
		})
	}
	return out
}

func writeGrants(w io.Writer, export []RoleGrants, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(export); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()

	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(export)

	case "table":
		tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
		fmt.Fprintln(tw, "ROLE\tRANK\tRESOURCE\tACTION\tSCOPED")
		fmt.Fprintln(tw, "────\t────\t────────\t──────\t──────")
		for _, r := range export {
			if r.Universal {
				fmt.Fprintf(tw, "%s\t%d\t*\t*\t-\n", r.Role, r.Rank)
				continue
			}
			for _, g := range r.Grants {
				scoped := "✓"
				if !g.Scoped {
					scoped = "✗"
				}
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n", r.Role, r.Rank, g.Resource, g.Action, scoped)
			}
		}
		return tw.Flush()
	}

	return fmt.Errorf("unsupported format: %s", format)
}
