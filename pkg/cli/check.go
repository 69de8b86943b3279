package cli

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/platinummonkey/bizauthz/pkg/rbac"
)

// ErrDenied is returned by check -strict when the decision is a denial
var ErrDenied = errors.New("permission denied")

func newCheckCommand() *Command {
	cmd := &Command{
		Name:        "check",
		Description: "Evaluate a permission decision against the grant table",
		Flags:       flag.NewFlagSet("check", flag.ExitOnError),
		Run:         runCheck,
	}

	cmd.Flags.String("role", "", "Actor role")
	cmd.Flags.String("action", "", "Action (e.g. READ)")
	cmd.Flags.String("resource", "", "Resource (e.g. PROSPECT)")
	cmd.Flags.String("actor-business", "", "Business the actor belongs to")
	cmd.Flags.String("actor-location", "", "Location the actor is pinned to")
	cmd.Flags.String("actor-department", "", "Department the actor is pinned to")
	cmd.Flags.String("business", "", "Business targeted by the request")
	cmd.Flags.String("location", "", "Location targeted by the request")
	cmd.Flags.String("department", "", "Department targeted by the request")
	cmd.Flags.Bool("json", false, "Output in JSON format")
	cmd.Flags.Bool("strict", false, "Return an error when the decision is a denial")

	return cmd
}

func runCheck(args []string) error {
	cmd := newCheckCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	lookup := func(name string) string {
		return cmd.Flags.Lookup(name).Value.String()
	}

	req := rbac.CheckRequest{
		Actor: rbac.Actor{
			Role: rbac.Role(lookup("role")),
			Scope: rbac.Scope{
				BusinessID:   lookup("actor-business"),
				LocationID:   lookup("actor-location"),
				DepartmentID: lookup("actor-department"),
			},
		},
		Action:   rbac.Action(lookup("action")),
		Resource: rbac.Resource(lookup("resource")),
		Scope: rbac.Scope{
			BusinessID:   lookup("business"),
			LocationID:   lookup("location"),
			DepartmentID: lookup("department"),
		},
	}

	if req.Actor.Role == "" || req.Action == "" || req.Resource == "" {
		return fmt.Errorf("role, action and resource are required")
	}

	d := rbac.NewResolver(nil).Decide(req.Actor, req.Action, req.Resource, req.Scope)
	resp := rbac.CheckResponse{Granted: d.Granted, Reason: d.Reason}

	if lookup("json") == "true" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			return err
		}
	} else {
		verdict := "DENIED"
		if resp.Granted {
			verdict = "GRANTED"
		}
		fmt.Printf("%s %s %s: %s (%s)\n", req.Actor.Role, req.Action, req.Resource, verdict, resp.Reason)
	}

	if !resp.Granted && lookup("strict") == "true" {
		return ErrDenied
	}
	return nil
}
