package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/losthumanity/TikDownloader/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history [clear]",
	Short: "List or clear the download log",
	Args:  cobra.MaximumNArgs(1),
	RunE:  historyRun,
}

func historyRun(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		if !strings.EqualFold(args[0], "clear") {
			return fmt.Errorf("unknown history action %q (valid: clear)", args[0])
		}
		if err := history.Clear(); err != nil {
			return fmt.Errorf("clearing history: %w", err)
		}
		fmt.Println("Download history cleared.")
		return nil
	}

	records, err := history.Load()
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}

	if len(records) == 0 {
		fmt.Println("No downloads recorded.")
		return nil
	}

	for _, line := range history.FormatForDisplay(records) {
		fmt.Println(line)
	}
	return nil
}
