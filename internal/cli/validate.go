package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/deskops/sla-service/internal/calendarfile"
	"github.com/deskops/sla-service/internal/sla"
)

func newValidateCmd() *cobra.Command {
	var calendars, policies []string
	var policyDir string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check calendar and policy files",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(calendars) == 0 && len(policies) == 0 && policyDir == "" {
				return errors.New("nothing to validate: pass --calendar, --policy or --policy-dir")
			}
			out := cmd.OutOrStdout()
			failed := 0
			report := func(path string, err error) {
				if err != nil {
					failed++
					fmt.Fprintf(out, "FAIL %s: %v\n", path, err)
					return
				}
				fmt.Fprintf(out, "ok   %s\n", path)
			}

			for _, path := range calendars {
				_, err := calendarfile.LoadCalendar(path, time.UTC)
				report(path, err)
			}
			for _, path := range policies {
				_, err := calendarfile.LoadPolicy(path)
				report(path, err)
			}
			if policyDir != "" {
				loaded, err := calendarfile.LoadPolicyDir(policyDir)
				if err == nil {
					err = checkUniqueNames(loaded)
				}
				report(policyDir, err)
			}

			if failed > 0 {
				return fmt.Errorf("%d file(s) failed validation", failed)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&calendars, "calendar", nil, "calendar YAML file (repeatable)")
	cmd.Flags().StringSliceVar(&policies, "policy", nil, "policy YAML file (repeatable)")
	cmd.Flags().StringVar(&policyDir, "policy-dir", "", "directory of policy YAML files")
	return cmd
}

// checkUniqueNames rejects directories the service could not seed: names must be
// unique and at most one policy may be the default.
func checkUniqueNames(policies []sla.Policy) error {
	names := make(map[string]bool, len(policies))
	defaults := 0
	for _, p := range policies {
		if names[p.Name] {
			return fmt.Errorf("duplicate policy name %q", p.Name)
		}
		names[p.Name] = true
		if p.Default {
			defaults++
		}
	}
	if defaults > 1 {
		return fmt.Errorf("%d policies are marked default", defaults)
	}
	return nil
}
