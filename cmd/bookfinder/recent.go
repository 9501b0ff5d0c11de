package main

import (
	"io"

	"github.com/spf13/cobra"

	"bookfinder/internal/recent"
)

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List recently edited books",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(cmd.Context(), appConfig, appLogger, nil)
		if err != nil {
			return err
		}
		defer a.close()

		st, err := a.screens(cliSessionID).Recent.WithLimit(limit).Load(cmd.Context())
		if err != nil {
			return screenError(st.Error, err)
		}
		return output(cmd, st, func(w io.Writer) error {
			return renderCards(w, st.Books, "No recent updates found.")
		})
	},
}

func init() {
	recentCmd.Flags().Int("limit", recent.DefaultLimit, "maximum number of edited records to look up")
	rootCmd.AddCommand(recentCmd)
}
