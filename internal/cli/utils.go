package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// maskConnectionString masks sensitive parts of database connection string for display
func maskConnectionString(connStr string) string {
	if len(connStr) > 20 {
		return connStr[:10] + "..." + connStr[len(connStr)-10:]
	}
	return "***"
}

func newTable(w io.Writer, header ...any) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, h := range header {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, h)
	}
	fmt.Fprintln(tw)
	return tw
}
