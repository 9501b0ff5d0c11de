package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"bookfinder/internal/view"
)

// output prints v as JSON under --json, or through text otherwise.
func output(cmd *cobra.Command, v any, text func(w io.Writer) error) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		return renderJSON(cmd.OutOrStdout(), v)
	}
	return text(cmd.OutOrStdout())
}

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderCards prints one row per book, or empty when there are none.
func renderCards(w io.Writer, cards []view.Card, empty string) error {
	if len(cards) == 0 {
		_, err := fmt.Fprintln(w, empty)
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tTITLE\tAUTHOR\tPUBLISHED\tID")
	for i, c := range cards {
		year := strings.TrimPrefix(c.FirstPublished, "First published: ")
		if year == "" {
			year = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i+1, truncate(c.Title, 60), truncate(c.Author, 30), year, c.OLID)
	}
	return tw.Flush()
}

func renderDetail(w io.Writer, d *view.DetailView) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Title:\t%s\n", d.Title)
	fmt.Fprintf(tw, "Open Library ID:\t%s\n", d.OLID)
	fmt.Fprintf(tw, "Published:\t%s\n", d.PublishedDate)
	fmt.Fprintf(tw, "Last modified:\t%s\n", d.ModifiedDate)
	fmt.Fprintf(tw, "Cover:\t%s\n", d.CoverURL)
	if err := tw.Flush(); err != nil {
		return err
	}

	description := d.Description
	if description == "" {
		description = "No description available."
	}
	fmt.Fprintf(w, "\n%s\n\nWikipedia\n", description)

	if !d.EncyclopediaFound {
		_, err := fmt.Fprintln(w, "No Wikipedia data found for this title.")
		return err
	}
	if d.Encyclopedia.Extract != "" {
		fmt.Fprintln(w, d.Encyclopedia.Extract)
	}
	if d.Encyclopedia.PageURL != "" {
		fmt.Fprintln(w, d.Encyclopedia.PageURL)
	}
	return nil
}

// screenError prefixes err with the message the screen shows for it.
func screenError(message string, err error) error {
	if message == "" {
		return err
	}
	return fmt.Errorf("%s (%w)", message, err)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
