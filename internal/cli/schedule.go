package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewScheduleCmd создаёт группу команд для управления расписаниями.
func NewScheduleCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Manage sync schedules",
	}

	cmd.AddCommand(
		newScheduleListCmd(clientFn, outputFn),
		newScheduleCreateCmd(clientFn, outputFn),
		newScheduleShowCmd(clientFn, outputFn),
		newScheduleUpdateCmd(clientFn, outputFn),
		newScheduleDeleteCmd(clientFn, outputFn),
		newScheduleEnableCmd(clientFn, outputFn),
		newScheduleDisableCmd(clientFn, outputFn),
		newScheduleSyncCmd(clientFn, outputFn),
		newScheduleBulkCmd(clientFn, outputFn),
	)

	return cmd
}

func newScheduleListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			schedules, err := client.ListSchedules()
			if err != nil {
				return err
			}

			headers := []string{"SUBJECT_ID", "INTERVAL", "PRIORITY", "ENABLED", "RETRIES", "NEXT_RUN", "LAST_ERROR"}
			rows := make([][]string, len(schedules))
			for i, s := range schedules {
				rows[i] = []string{
					s.SubjectID, formatInterval(s.IntervalMin), s.Priority,
					strconv.FormatBool(s.Enabled), strconv.Itoa(s.RetryCount),
					s.NextRunAt, s.LastError,
				}
			}

			out.Print(headers, rows, schedules)
			return nil
		},
	}
}

func newScheduleCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var intervalMin int
	var priority string

	cmd := &cobra.Command{
		Use:   "create SUBJECT_ID",
		Short: "Schedule a subject for periodic sync",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			schedule, err := client.CreateSchedule(CreateScheduleRequest{
				SubjectID:   args[0],
				IntervalMin: intervalMin,
				Priority:    priority,
			})
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Schedule created: %s", schedule.SubjectID))
			out.Print(
				[]string{"SUBJECT_ID", "INTERVAL", "PRIORITY", "ENABLED", "NEXT_RUN"},
				[][]string{{
					schedule.SubjectID, formatInterval(schedule.IntervalMin),
					schedule.Priority, strconv.FormatBool(schedule.Enabled), schedule.NextRunAt,
				}},
				schedule,
			)
			return nil
		},
	}

	cmd.Flags().IntVar(&intervalMin, "interval", 0, "Sync interval in minutes (default 60)")
	cmd.Flags().StringVar(&priority, "priority", "", "Priority: high, normal or low")

	return cmd
}

func newScheduleShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show SUBJECT_ID",
		Short: "Show schedule details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			schedule, err := client.GetSchedule(args[0])
			if err != nil {
				return err
			}

			out.Print(
				[]string{"SUBJECT_ID", "INTERVAL", "PRIORITY", "ENABLED", "RETRIES", "NEXT_RUN", "LAST_ERROR"},
				[][]string{{
					schedule.SubjectID, formatInterval(schedule.IntervalMin), schedule.Priority,
					strconv.FormatBool(schedule.Enabled), strconv.Itoa(schedule.RetryCount),
					schedule.NextRunAt, schedule.LastError,
				}},
				schedule,
			)
			return nil
		},
	}
}

func newScheduleUpdateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var intervalMin int
	var priority string
	var enabled bool

	cmd := &cobra.Command{
		Use:   "update SUBJECT_ID",
		Short: "Update a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			req := UpdateScheduleRequest{}
			if cmd.Flags().Changed("interval") {
				req.IntervalMin = &intervalMin
			}
			if cmd.Flags().Changed("priority") {
				req.Priority = &priority
			}
			if cmd.Flags().Changed("enabled") {
				req.Enabled = &enabled
			}

			schedule, err := client.UpdateSchedule(args[0], req)
			if err != nil {
				return err
			}

			out.Success("Schedule updated")
			out.Print(
				[]string{"SUBJECT_ID", "INTERVAL", "PRIORITY", "ENABLED", "NEXT_RUN"},
				[][]string{{
					schedule.SubjectID, formatInterval(schedule.IntervalMin),
					schedule.Priority, strconv.FormatBool(schedule.Enabled), schedule.NextRunAt,
				}},
				schedule,
			)
			return nil
		},
	}

	cmd.Flags().IntVar(&intervalMin, "interval", 0, "New interval in minutes")
	cmd.Flags().StringVar(&priority, "priority", "", "New priority")
	cmd.Flags().BoolVar(&enabled, "enabled", true, "Enable or disable the schedule")

	return cmd
}

func newScheduleDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete SUBJECT_ID",
		Short: "Delete a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.DeleteSchedule(args[0]); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Schedule deleted: %s", args[0]))
			return nil
		},
	}
}

func newScheduleEnableCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "enable SUBJECT_ID",
		Short: "Enable a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if _, err := client.EnableSchedule(args[0]); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Schedule enabled: %s", args[0]))
			return nil
		},
	}
}

func newScheduleDisableCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "disable SUBJECT_ID",
		Short: "Disable a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if _, err := client.DisableSchedule(args[0]); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Schedule disabled: %s", args[0]))
			return nil
		},
	}
}

func newScheduleSyncCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "sync SUBJECT_ID",
		Short: "Request an out-of-band sync",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.RequestSync(args[0]); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Sync requested: %s", args[0]))
			return nil
		},
	}
}

func newScheduleBulkCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var intervalMin int
	var priority string
	var enabled bool

	cmd := &cobra.Command{
		Use:   "bulk SUBJECT_ID...",
		Short: "Update several schedules at once",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			update := UpdateScheduleRequest{}
			if cmd.Flags().Changed("interval") {
				update.IntervalMin = &intervalMin
			}
			if cmd.Flags().Changed("priority") {
				update.Priority = &priority
			}
			if cmd.Flags().Changed("enabled") {
				update.Enabled = &enabled
			}

			updated, err := client.BulkUpdate(BulkUpdateRequest{
				SubjectIDs: args,
				Update:     update,
			})
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Schedules updated: %d of %d", updated, len(args)))
			return nil
		},
	}

	cmd.Flags().IntVar(&intervalMin, "interval", 0, "New interval in minutes")
	cmd.Flags().StringVar(&priority, "priority", "", "New priority")
	cmd.Flags().BoolVar(&enabled, "enabled", true, "Enable or disable the schedules")

	return cmd
}

func formatInterval(min int) string {
	if min <= 0 {
		return ""
	}
	return strconv.Itoa(min) + "m"
}
