package vectordb

import (
	"fmt"
	"strings"
)

// FormatResults renders search results for the terminal.
func FormatResults(results []SearchResult) string {
	if len(results) == 0 {
		return "No products found."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d product(s):\n\n", len(results))
	for i, r := range results {
		fmt.Fprintf(&sb, "%2d. %-16s %.3f  %s", i+1, r.Document.ID, r.Similarity, r.Document.Content)
		if r.Document.Metadata.Brand != "" && !strings.Contains(r.Document.Content, r.Document.Metadata.Brand) {
			fmt.Fprintf(&sb, " [%s]", r.Document.Metadata.Brand)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
