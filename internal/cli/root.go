package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/deskops/sla-service/internal/calendarfile"
	"github.com/deskops/sla-service/internal/sla"
)

var version = "dev"

// SetVersion overrides the version reported by `slactl version`.
func SetVersion(v string) {
	version = v
}

// entityFlags describe the tracked entity being evaluated.
type entityFlags struct {
	calendarPath  string
	policyPath    string
	timezone      string
	priority      string
	created       string
	firstResponse string
	completed     string
	terminal      bool
	paused        bool
	task          bool
}

// NewRootCmd builds the slactl command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "slactl",
		Short: "Compute SLA deadlines and breach status from YAML configuration",
		Long: `slactl evaluates SLA policies offline. Calendars and policies use the same
YAML files the service can seed its database from.`,
		SilenceUsage: true,
	}
	root.AddCommand(newDueCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "slactl %s\n", version)
		},
	})
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func (f *entityFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.calendarPath, "calendar", "", "business calendar YAML file; omit to count wall-clock time")
	cmd.Flags().StringVar(&f.policyPath, "policy", "", "SLA policy YAML file")
	cmd.Flags().StringVar(&f.timezone, "timezone", "UTC", "timezone used when the calendar file names none")
	cmd.Flags().StringVar(&f.priority, "priority", "normal", "entity priority")
	cmd.Flags().StringVar(&f.created, "created", "", "entity creation time (RFC3339)")
	cmd.Flags().StringVar(&f.firstResponse, "first-response", "", "first response time (RFC3339)")
	cmd.Flags().StringVar(&f.completed, "completed", "", "resolution or completion time (RFC3339)")
	cmd.Flags().BoolVar(&f.terminal, "terminal", false, "entity is closed or cancelled")
	cmd.Flags().BoolVar(&f.paused, "paused", false, "SLA clock is paused")
	cmd.Flags().BoolVar(&f.task, "task", false, "evaluate as a task (resolution only)")
	_ = cmd.MarkFlagRequired("policy")
	_ = cmd.MarkFlagRequired("created")
}

func (f *entityFlags) load() (*sla.Policy, *sla.Calendar, error) {
	policy, err := calendarfile.LoadPolicy(f.policyPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load policy: %w", err)
	}
	if f.calendarPath == "" {
		return policy, nil, nil
	}
	loc, err := time.LoadLocation(f.timezone)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid timezone %q: %w", f.timezone, err)
	}
	cal, err := calendarfile.LoadCalendar(f.calendarPath, loc)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load calendar: %w", err)
	}
	return policy, cal.Build(), nil
}

func (f *entityFlags) entity() (snapshotEntity, error) {
	created, err := parseInstant("created", f.created)
	if err != nil {
		return snapshotEntity{}, err
	}
	if created == nil {
		return snapshotEntity{}, fmt.Errorf("--created is required")
	}
	firstResponse, err := parseInstant("first-response", f.firstResponse)
	if err != nil {
		return snapshotEntity{}, err
	}
	completed, err := parseInstant("completed", f.completed)
	if err != nil {
		return snapshotEntity{}, err
	}
	return snapshotEntity{
		CreatedAt:       *created,
		Priority:        sla.ParsePriority(f.priority),
		Terminal:        f.terminal,
		Paused:          f.paused,
		FirstResponseAt: firstResponse,
		CompletedAt:     completed,
		ResolutionOnly:  f.task,
	}, nil
}

// snapshotEntity is an entity described entirely by command-line flags.
type snapshotEntity sla.Snapshot

func (e snapshotEntity) SLASnapshot() sla.Snapshot {
	return sla.Snapshot(e)
}

func parseInstant(flag, val string) (*time.Time, error) {
	if val == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil, fmt.Errorf("--%s: expected RFC3339 time: %w", flag, err)
	}
	return &t, nil
}

func formatInstant(t *time.Time, loc *time.Location) string {
	if t == nil {
		return "-"
	}
	return t.In(loc).Format(time.RFC3339)
}
