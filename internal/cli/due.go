package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deskops/sla-service/internal/sla"
)

func newDueCmd() *cobra.Command {
	var f entityFlags
	cmd := &cobra.Command{
		Use:   "due",
		Short: "Print the deadlines a policy assigns to an entity",
		Example: `  slactl due --calendar office.yaml --policy standard.yaml \
    --priority high --created 2024-01-12T16:00:00Z`,
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, cal, err := f.load()
			if err != nil {
				return err
			}
			e, err := f.entity()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			due := sla.CalculateDueTimes(e, policy, cal)
			if due == nil {
				fmt.Fprintf(out, "policy %q has no target for priority %q\n", policy.Name, e.Priority)
				return nil
			}
			loc := cal.Location()
			fmt.Fprintf(out, "policy:            %s\n", policy.Name)
			fmt.Fprintf(out, "tier:              %s (%s hours)\n", due.Target.Priority, due.Target.OperationalHours)
			if !f.task {
				fmt.Fprintf(out, "first response due: %s\n", formatInstant(due.FirstResponse, loc))
				fmt.Fprintf(out, "next response due:  %s\n", formatInstant(due.NextResponse, loc))
			}
			fmt.Fprintf(out, "resolution due:     %s\n", formatInstant(due.Resolution, loc))
			return nil
		},
	}
	f.register(cmd)
	return cmd
}
