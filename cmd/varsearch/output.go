package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"

	domexport "github.com/kailas-cloud/varsearch/internal/domain/export"
	domsaved "github.com/kailas-cloud/varsearch/internal/domain/savedfilter"
	domschema "github.com/kailas-cloud/varsearch/internal/domain/schema"
	"github.com/kailas-cloud/varsearch/internal/domain/search/response"
)

const maxCellWidth = 40

// cellWidth returns the truncation width for table cells written to w.
// Cells are only shortened on an interactive terminal; zero disables it.
func cellWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return maxCellWidth
	}
	return 0
}

func printJSON(w io.Writer, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Fprintln(w, string(data))
}

type fieldJSON struct {
	Name        string   `json:"name"`
	Label       string   `json:"label"`
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

func printSchemaJSON(w io.Writer, sch domschema.Schema) {
	out := make([]fieldJSON, 0, sch.Len())
	for _, f := range sch.Fields() {
		out = append(out, fieldJSON{
			Name:        f.Name(),
			Label:       f.Label(),
			Type:        string(f.FieldType()),
			Description: f.Description(),
			Suggestions: f.Suggestions(),
		})
	}
	printJSON(w, map[string]any{"fields": out})
}

func printSchemaTable(w io.Writer, sch domschema.Schema) {
	width := cellWidth(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTYPE\tLABEL\tSUGGESTIONS")
	for _, f := range sch.Fields() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			f.Name(),
			f.FieldType(),
			f.Label(),
			truncate(strings.Join(f.Suggestions(), ", "), width),
		)
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d fields\n", sch.Len())
}

func printResponseJSON(w io.Writer, resp response.Response) {
	printJSON(w, resp)
}

func printResponseTable(w io.Writer, resp response.Response) {
	width := cellWidth(w)
	cols := resp.Columns()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.ToUpper(strings.Join(cols, "\t")))
	for _, rec := range resp.Data() {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = truncate(cell(rec[c]), width)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d rows (%d total)\n", len(resp.Data()), resp.Total())

	facets := resp.Facets()
	if len(facets) == 0 {
		return
	}
	names := make([]string, 0, len(facets))
	for name := range facets {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FACET\tVALUE\tCOUNT")
	for _, name := range names {
		for _, b := range facets[name] {
			fmt.Fprintf(tw, "%s\t%s\t%d\n", name, truncate(b.Value, width), b.Count)
		}
	}
	tw.Flush()
}

func printSavedListJSON(w io.Writer, items []domsaved.SavedFilter) {
	if items == nil {
		items = []domsaved.SavedFilter{}
	}
	printJSON(w, items)
}

func printSavedListTable(w io.Writer, items []domsaved.SavedFilter) {
	width := cellWidth(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tQUERY\tFILTERS\tCREATED")
	for _, sf := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			sf.ID,
			truncate(sf.Name, width),
			truncate(sf.Payload.Query(), width),
			truncate(filterSummary(sf), width),
			sf.CreatedAt.Local().Format("2006-01-02 15:04:05"),
		)
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d saved filters\n", len(items))
}

func printSaved(w io.Writer, sf domsaved.SavedFilter) {
	if jsonOutput {
		printJSON(w, sf)
		return
	}
	fmt.Fprintf(w, "ID:       %s\n", sf.ID)
	fmt.Fprintf(w, "Name:     %s\n", sf.Name)
	if q := sf.Payload.Query(); q != "" {
		fmt.Fprintf(w, "Query:    %s\n", q)
	}
	if s := filterSummary(sf); s != "" {
		fmt.Fprintf(w, "Filters:  %s\n", s)
	}
	fmt.Fprintf(w, "Created:  %s\n", sf.CreatedAt.Local().Format("2006-01-02 15:04:05"))
}

type downloadJSON struct {
	Format      domexport.Format `json:"format"`
	Path        string           `json:"path"`
	ContentType string           `json:"content_type"`
	Bytes       int              `json:"bytes"`
}

func printDownloads(w io.Writer, files []downloadJSON) {
	if jsonOutput {
		printJSON(w, files)
		return
	}
	for _, f := range files {
		fmt.Fprintf(w, "Wrote %s (%s, %d bytes)\n", f.Path, f.Format, f.Bytes)
	}
}

func filterSummary(sf domsaved.SavedFilter) string {
	filters := sf.Payload.Filters()
	parts := make([]string, 0, len(filters))
	for _, name := range sf.Payload.FilterNames() {
		parts = append(parts, name+"="+filters[name].Text())
	}
	return strings.Join(parts, ", ")
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

func truncate(s string, width int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if width > 3 && len(s) > width {
		return s[:width-3] + "..."
	}
	return s
}
