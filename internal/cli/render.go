package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/sashko-guz/splitter/internal/model"
)

// RenderTable writes src as aligned columns with a header row
func RenderTable(w io.Writer, src model.TableSource) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	cols := src.ColumnCount()
	cells := make([]string, cols)

	for c := 0; c < cols; c++ {
		cells[c] = src.Header(c)
	}
	if _, err := fmt.Fprintln(tw, strings.Join(cells, "\t")); err != nil {
		return err
	}

	for r := 0; r < src.RowCount(); r++ {
		for c := 0; c < cols; c++ {
			v, ok := src.ValueAt(r, c, model.RoleDisplay)
			if !ok {
				v = "-"
			}
			cells[c] = v
		}
		if _, err := fmt.Fprintln(tw, strings.Join(cells, "\t")); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// RenderSession prints the image table followed by one selection table per image
func RenderSession(w io.Writer, images *model.ImageTable, selections []*model.SelectionTable, paths []string) error {
	if err := RenderTable(w, images); err != nil {
		return err
	}
	for i, t := range selections {
		if _, err := fmt.Fprintf(w, "\n%s\n", paths[i]); err != nil {
			return err
		}
		if t.RowCount() == 0 {
			if _, err := fmt.Fprintln(w, "  (no selections)"); err != nil {
				return err
			}
			continue
		}
		if err := RenderTable(w, t); err != nil {
			return err
		}
	}
	return nil
}
