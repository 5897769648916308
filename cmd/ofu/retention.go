package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/marianozunino/ofu/internal/retention"
	"github.com/marianozunino/ofu/internal/utils"
)

var retentionCmd = &cobra.Command{
	Use:   "retention <size-mib>...",
	Short: "Show how long files of the given sizes are kept",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}

		policy, err := retention.New(cfg)
		if err != nil {
			return err
		}

		now := time.Now()
		for _, arg := range args {
			size, err := strconv.ParseFloat(arg, 64)
			if err != nil || size < 0 {
				return fmt.Errorf("invalid size %q: expected a non-negative number of MiB", arg)
			}
			if size > policy.MaxSize {
				fmt.Fprintf(cmd.OutOrStdout(), "%g MiB: exceeds the %g MiB limit\n", size, policy.MaxSize)
				continue
			}

			days := policy.MaxAgeDays(size)
			expires := now.Add(time.Duration(days * float64(24*time.Hour)))
			fmt.Fprintf(cmd.OutOrStdout(), "%g MiB: %s (until %s)\n", size, utils.FormatDays(days), expires.Format("2006-01-02"))
		}
		return nil
	},
}
