package commands

import (
	"os"

	"github.com/ahad1361/proteoimic-validation/pkg/classifier"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available components",
		RunE: func(cmd *cobra.Command, args []string) error {
			writeList("Classifiers", classifier.Names())
			writeList("Formats", []string{"table", "json", "markdown", "csv", "html"})
			writeList("Log formats", []string{"study", "json", "none"})
			return nil
		},
	}
	return cmd
}

func writeList(title string, items []string) {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header([]string{title})
	for _, item := range items {
		table.Append([]string{item})
	}
	table.Render()
}
