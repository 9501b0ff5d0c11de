package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the catalog by keyword",
	Long: `search runs a free-text search. Results come in pages of 24; --pages
loads further pages while the previous one came back full, dropping books
already shown.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pages, _ := cmd.Flags().GetInt("pages")

		a, err := newApp(cmd.Context(), appConfig, appLogger, nil)
		if err != nil {
			return err
		}
		defer a.close()

		ctrl := a.screens(cliSessionID).Search
		st, err := ctrl.Search(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return screenError(st.Error, err)
		}
		for i := 1; i < pages && st.HasMore; i++ {
			if st, err = ctrl.LoadMore(cmd.Context()); err != nil {
				return screenError(st.MoreError, err)
			}
		}

		return output(cmd, st, func(w io.Writer) error {
			if err := renderCards(w, st.Books, "No results."); err != nil {
				return err
			}
			if st.HasMore {
				_, err := fmt.Fprintf(w, "\nMore results available; rerun with --pages %d.\n", st.Page+1)
				return err
			}
			return nil
		})
	},
}

func init() {
	searchCmd.Flags().Int("pages", 1, "number of result pages to load")
	rootCmd.AddCommand(searchCmd)
}
