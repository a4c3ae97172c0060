package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewStatsCmd создаёт команду вывода сводной статистики.
func NewStatsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show schedule statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			stats, err := client.GetStats()
			if err != nil {
				return err
			}

			out.Print(
				[]string{"TOTAL", "ENABLED", "DISABLED", "OVERDUE", "HIGH", "NORMAL", "LOW", "AVG_INTERVAL", "ERROR_RATE"},
				[][]string{{
					strconv.Itoa(stats.Total),
					strconv.Itoa(stats.Enabled),
					strconv.Itoa(stats.Disabled),
					strconv.Itoa(stats.Overdue),
					strconv.Itoa(stats.ByPriority["high"]),
					strconv.Itoa(stats.ByPriority["normal"]),
					strconv.Itoa(stats.ByPriority["low"]),
					fmt.Sprintf("%.1fm", stats.AvgIntervalMin),
					fmt.Sprintf("%.2f", stats.ErrorRate),
				}},
				stats,
			)
			return nil
		},
	}
}

// NewCleanupCmd создаёт команду очистки осиротевших расписаний.
func NewCleanupCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove schedules for subjects that no longer exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			removed, err := client.RunCleanup()
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Schedules removed: %d", removed))
			return nil
		},
	}
}
