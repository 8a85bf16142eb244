package domain

import (
	"fmt"
	"strings"
	"time"
)

// UnsavedRecord describes a write that could not be committed to its store
// of record. Records are append-only.
type UnsavedRecord struct {
	ID      string
	Time    time.Time
	Title   string
	Details string
}

// Format renders the record as a human-readable block for the unsaved log
func (r UnsavedRecord) Format() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "==== %s %s", r.Time.Format(time.RFC3339), r.Title)
	if r.ID != "" {
		fmt.Fprintf(&sb, " [%s]", r.ID)
	}
	sb.WriteByte('\n')
	sb.WriteString(strings.TrimRight(r.Details, "\n"))
	sb.WriteString("\n\n")
	return sb.String()
}
