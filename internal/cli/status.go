package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/deskops/sla-service/internal/sla"
)

func newStatusCmd() *cobra.Command {
	var f entityFlags
	var now string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Classify each SLA milestone of an entity at a given instant",
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, cal, err := f.load()
			if err != nil {
				return err
			}
			e, err := f.entity()
			if err != nil {
				return err
			}
			at := time.Now()
			parsed, err := parseInstant("now", now)
			if err != nil {
				return err
			}
			if parsed != nil {
				at = *parsed
			}

			out := cmd.OutOrStdout()
			st := sla.GetStatus(e, policy, cal, at)
			if !st.HasSLA {
				fmt.Fprintln(out, "no SLA applies")
				return nil
			}
			loc := cal.Location()
			fmt.Fprintf(out, "policy:   %s (%s)\n", st.PolicyName, st.Priority)
			for _, m := range st.Milestones() {
				fmt.Fprintf(out, "%-15s %-8s due %s actual %s\n", m.Kind, m.State, formatInstant(m.Due, loc), formatInstant(m.Actual, loc))
			}
			elapsed := sla.Elapsed(e, cal, at)
			fmt.Fprintf(out, "elapsed:  %s (business %s)\n", elapsed.SystemHours, elapsed.BusinessHours)
			fmt.Fprintf(out, "paused:   %t\n", st.Paused)
			fmt.Fprintf(out, "breached: %t\n", st.Breached)
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&now, "now", "", "evaluation instant (RFC3339); defaults to the current time")
	return cmd
}
