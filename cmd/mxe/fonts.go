package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/alnah/go-mxe/internal/fonts"
)

// runFonts prints the font catalog as a table.
func runFonts(env *Environment) error {
	tw := tabwriter.NewWriter(env.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tKIND\t")
	for _, f := range fonts.List() {
		mark := ""
		if f.ID == fonts.DefaultBody {
			mark = "(default)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", f.ID, f.Name, f.Kind, mark)
	}
	return tw.Flush()
}
