package main

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/marianozunino/ofu/internal/app"
	"github.com/marianozunino/ofu/internal/purge"
	"github.com/marianozunino/ofu/internal/retention"
)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete every stored file that outlived its retention",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		defer log.Sync()

		services, err := app.NewServices(cfg, log)
		if err != nil {
			return err
		}

		report, err := services.Purger.Run()
		printReport(cmd.OutOrStdout(), cmd.ErrOrStderr(), report)
		return err
	},
}

func printReport(out, errOut io.Writer, report purge.Report) {
	for _, d := range report.Deleted {
		fmt.Fprintf(out, "Deleted \"%s\", %s MiB, %s days old\n",
			d.Name,
			formatRounded(retention.SizeMiB(d.Size), 100),
			formatRounded(d.AgeDays, 10),
		)
	}
	for _, ferr := range report.Failed {
		fmt.Fprintf(errOut, "Failed to delete %q: %v\n", ferr.Name, ferr.Err)
	}
	fmt.Fprintf(out, "%d of %d files deleted\n", report.DeletedCount(), report.Scanned)
}

func formatRounded(v, scale float64) string {
	return strconv.FormatFloat(math.Round(v*scale)/scale, 'f', -1, 64)
}
