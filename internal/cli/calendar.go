package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/me/chorewheel/pkg/model"
)

func newCalendarCmd() *cobra.Command {
	var (
		choreID string
		days    int
		mine    bool
	)
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Show upcoming turns for a chore, or across your chores",
		RunE: func(cmd *cobra.Command, args []string) error {
			if choreID != "" && mine {
				return fmt.Errorf("--mine applies to your own calendar, not to --chore")
			}

			var (
				occ []model.Occurrence
				err error
			)
			if choreID != "" {
				occ, err = client.ChoreCalendar(choreID, days)
			} else {
				occ, err = client.MyCalendar(days, mine)
			}
			if err != nil {
				return fmt.Errorf("get calendar: %w", err)
			}
			if len(occ) == 0 {
				printf(cmd, "Nothing scheduled.\n")
				return nil
			}

			printf(cmd, "%-6s  %-10s  %-20s  %s\n", "TURN", "DATE", "CHORE", "USER")
			printf(cmd, "%-6s  %-10s  %-20s  %s\n", "----", "----", "-----", "----")
			for i, o := range occ {
				printf(cmd, "%-6s  %-10s  %-20s  %s\n",
					humanize.Ordinal(i+1), o.Date.Format(model.DateFormat), o.ChoreName, o.UserID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&choreID, "chore", "", "Chore ID (default: all your chores)")
	cmd.Flags().IntVar(&days, "days", 0, "Days to look ahead (server default when 0)")
	cmd.Flags().BoolVar(&mine, "mine", false, "Only your own turns")
	return cmd
}
