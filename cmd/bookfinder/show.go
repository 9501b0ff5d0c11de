package main

import (
	"io"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <olid>",
	Short: "Show a book with its Wikipedia summary",
	Long: `show prints a work (OL…W) or edition (OL…M) and the Wikipedia summary
whose title matches exactly, when one exists.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), appConfig, appLogger, nil)
		if err != nil {
			return err
		}
		defer a.close()

		st, err := a.screens(cliSessionID).Detail.Load(cmd.Context(), args[0])
		if err != nil {
			return screenError(st.Error, err)
		}
		return output(cmd, st.Book, func(w io.Writer) error {
			return renderDetail(w, st.Book)
		})
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
