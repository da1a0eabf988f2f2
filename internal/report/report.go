package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"dupescan/internal/dupes"
)

// Report is the serializable outcome of one scan.
type Report struct {
	Generator    string        `json:"generator"`
	Created      time.Time     `json:"created"`
	Directory    string        `json:"directory"`
	FilesScanned int           `json:"files_scanned"`
	Groups       []GroupReport `json:"groups"`
	TotalWasted  int64         `json:"total_wasted_bytes"`
	Skipped      []string      `json:"skipped_files,omitempty"`
}

type GroupReport struct {
	Count    int      `json:"count"`
	FileSize int64    `json:"file_size_bytes"`
	Wasted   int64    `json:"wasted_bytes"`
	Paths    []string `json:"paths"`
}

func New(directory string, filesScanned int, result *dupes.Result) *Report {
	r := &Report{
		Generator:    "dupescan",
		Created:      time.Now().UTC(),
		Directory:    directory,
		FilesScanned: filesScanned,
		Groups:       make([]GroupReport, 0, len(result.Groups)),
		TotalWasted:  result.TotalWasted(),
	}

	for i := range result.Groups {
		g := &result.Groups[i]
		r.Groups = append(r.Groups, GroupReport{
			Count:    len(g.Paths),
			FileSize: g.Size,
			Wasted:   g.Wasted(),
			Paths:    g.Paths,
		})
	}

	for _, s := range result.Skipped {
		r.Skipped = append(r.Skipped, s.Path)
	}

	return r
}

// FormatSize renders a byte count in the largest unit that keeps the value
// at or above one, with two decimals.
func FormatSize(bytes int64) string {
	const unit = 1024
	units := []string{"B", "KB", "MB", "GB", "TB"}

	size := float64(bytes)
	index := 0
	for size >= unit && index < len(units)-1 {
		size /= unit
		index++
	}

	if index == 0 {
		return fmt.Sprintf("%d B", bytes)
	}
	return fmt.Sprintf("%.2f %s", size, units[index])
}

// FormatText renders the human-readable group listing.
func FormatText(r *Report) string {
	var report string

	if len(r.Groups) == 0 {
		report = "No duplicate files found.\n"
	} else {
		report = fmt.Sprintf("Found %d duplicate groups:\n\n", len(r.Groups))

		for i, group := range r.Groups {
			report += fmt.Sprintf("Group %d: %d files, %s each, wasted: %s\n",
				i+1, group.Count, FormatSize(group.FileSize), FormatSize(group.Wasted))
			for _, path := range group.Paths {
				report += fmt.Sprintf("  - %s\n", path)
			}
			report += "\n"
		}

		report += fmt.Sprintf("Total wasted space: %s\n", FormatSize(r.TotalWasted))
	}

	if len(r.Skipped) > 0 {
		report += fmt.Sprintf("Skipped %d unreadable files\n", len(r.Skipped))
	}

	return report
}

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, r *Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
