package main

import (
	"io"

	"github.com/spf13/cobra"

	"bookfinder/internal/view"
)

var advancedCmd = &cobra.Command{
	Use:   "advanced",
	Short: "Search the catalog by title, author, subject or year",
	Long: `advanced runs a field-qualified search. Blank fields are left out of the
query; at least one field is required.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var form view.AdvancedForm
		form.Title, _ = cmd.Flags().GetString("title")
		form.Author, _ = cmd.Flags().GetString("author")
		form.Subject, _ = cmd.Flags().GetString("subject")
		form.FirstPublishYear, _ = cmd.Flags().GetString("year")

		a, err := newApp(cmd.Context(), appConfig, appLogger, nil)
		if err != nil {
			return err
		}
		defer a.close()

		st, err := a.screens(cliSessionID).Advanced.Submit(cmd.Context(), form)
		if err != nil {
			return screenError(st.Error, err)
		}
		return output(cmd, st, func(w io.Writer) error {
			return renderCards(w, st.Books, "No results.")
		})
	},
}

func init() {
	advancedCmd.Flags().String("title", "", "title contains")
	advancedCmd.Flags().String("author", "", "author name")
	advancedCmd.Flags().String("subject", "", "subject")
	advancedCmd.Flags().String("year", "", "first publish year")
	rootCmd.AddCommand(advancedCmd)
}
