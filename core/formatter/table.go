package formatter

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/artpar/blogapi/pkg/jsonapi"
)

// TableFormatter formats output as aligned text tables: primary data
// first, then included resources grouped by type.
type TableFormatter struct{}

// NewTableFormatter creates a new table formatter.
func NewTableFormatter() *TableFormatter {
	return &TableFormatter{}
}

// Name returns the formatter name.
func (f *TableFormatter) Name() string {
	return "table"
}

// Description returns the formatter description.
func (f *TableFormatter) Description() string {
	return "Aligned text table output"
}

// FormatDocument formats a document as tables.
func (f *TableFormatter) FormatDocument(w io.Writer, doc jsonapi.Document, opts FormatOptions) error {
	if len(doc.Errors) > 0 {
		for _, e := range doc.Errors {
			fmt.Fprintf(w, "Error %s: %s\n", e.Status, e.Detail)
		}
		return nil
	}

	resources, collection := primary(doc)
	switch {
	case len(resources) == 0 && collection:
		fmt.Fprintln(w, "No records found.")
	case len(resources) == 0:
		fmt.Fprintln(w, "Record not found.")
	case collection:
		if err := f.formatList(w, resources, opts); err != nil {
			return err
		}
	default:
		if err := f.formatRecord(w, resources[0], opts); err != nil {
			return err
		}
	}

	if len(doc.Included) == 0 {
		return nil
	}

	var order []string
	byType := make(map[string][]jsonapi.Resource)
	for _, r := range doc.Included {
		if _, ok := byType[r.Type]; !ok {
			order = append(order, r.Type)
		}
		byType[r.Type] = append(byType[r.Type], r)
	}
	for _, typ := range order {
		fmt.Fprintf(w, "\nIncluded %s:\n", typ)
		if err := f.formatList(w, byType[typ], FormatOptions{NoHeader: opts.NoHeader, MaxWidth: opts.MaxWidth}); err != nil {
			return err
		}
	}
	return nil
}

// formatList writes one row per resource.
func (f *TableFormatter) formatList(w io.Writer, resources []jsonapi.Resource, opts FormatOptions) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	columns := f.resolveColumns(resources, opts.Columns)

	if !opts.NoHeader {
		headers := []string{"TYPE", "ID"}
		for _, col := range columns {
			headers = append(headers, strings.ToUpper(col))
		}
		fmt.Fprintln(tw, strings.Join(headers, "\t"))
	}

	for _, r := range resources {
		values := []string{r.Type, r.ID}
		for _, col := range columns {
			values = append(values, f.formatValue(r.Attributes[col], opts.MaxWidth))
		}
		fmt.Fprintln(tw, strings.Join(values, "\t"))
	}

	return tw.Flush()
}

// formatRecord writes a single resource as key-value pairs, followed by
// its relationship linkage.
func (f *TableFormatter) formatRecord(w io.Writer, r jsonapi.Resource, opts FormatOptions) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Type:\t%s\n", r.Type)
	fmt.Fprintf(tw, "ID:\t%s\n", r.ID)
	for _, col := range f.resolveColumns([]jsonapi.Resource{r}, opts.Columns) {
		fmt.Fprintf(tw, "%s:\t%s\n", f.formatLabel(col), f.formatValue(r.Attributes[col], 0))
	}
	if r.Relationships != nil {
		for _, name := range r.Relationships.Names() {
			rel, _ := r.Relationships.Get(name)
			fmt.Fprintf(tw, "%s:\t%s\n", f.formatLabel(name), f.formatLinkage(rel.Data))
		}
	}

	return tw.Flush()
}

// resolveColumns determines which attributes to display.
func (f *TableFormatter) resolveColumns(resources []jsonapi.Resource, requested []string) []string {
	if len(requested) > 0 {
		return requested
	}

	seen := make(map[string]bool)
	var columns []string
	for _, r := range resources {
		for k := range r.Attributes {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
		}
	}
	sort.Strings(columns)
	return columns
}

// formatLabel formats a member name as a label.
func (f *TableFormatter) formatLabel(name string) string {
	// Convert dasherized-name to Title Case
	words := strings.Split(name, "-")
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + word[1:]
		}
	}
	return strings.Join(words, " ")
}

func (f *TableFormatter) formatLinkage(data any) string {
	switch v := data.(type) {
	case *jsonapi.ResourceIdentifier:
		if v == nil {
			return "-"
		}
		return v.Type + "/" + v.ID
	case jsonapi.ResourceIdentifier:
		return v.Type + "/" + v.ID
	case []jsonapi.ResourceIdentifier:
		if len(v) == 0 {
			return "[]"
		}
		ids := make([]string, len(v))
		for i, id := range v {
			ids[i] = id.Type + "/" + id.ID
		}
		return strings.Join(ids, ", ")
	}
	return "-"
}

// formatValue formats a value for display.
func (f *TableFormatter) formatValue(val any, maxWidth int) string {
	if val == nil {
		return "-"
	}

	var str string
	switch v := val.(type) {
	case string:
		str = v
	case bool:
		if v {
			str = "yes"
		} else {
			str = "no"
		}
	case []byte:
		str = "[binary]"
	case time.Time:
		str = v.Format(time.RFC3339)
	case int, int64:
		str = fmt.Sprintf("%d", v)
	case float64:
		// Check if it's a whole number
		if v == float64(int64(v)) {
			str = fmt.Sprintf("%d", int64(v))
		} else {
			str = fmt.Sprintf("%.2f", v)
		}
	default:
		b, _ := json.Marshal(v)
		str = string(b)
	}

	// Truncate if needed
	if maxWidth > 3 && len(str) > maxWidth {
		str = str[:maxWidth-3] + "..."
	}

	return str
}

// FormatError formats an error message.
func (f *TableFormatter) FormatError(w io.Writer, err error) error {
	fmt.Fprintf(w, "Error: %s\n", err.Error())
	return nil
}

func init() {
	Register(NewTableFormatter())
}
