package dryrun

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/glefebvre/mediacatalog/internal/catalog"
	"github.com/glefebvre/mediacatalog/internal/models"
)

// Severities
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Issue represents a detected issue in the dry-run
type Issue struct {
	ID       int64       `json:"id"`
	Kind     models.Kind `json:"kind"`
	Title    string      `json:"title"`
	Issues   []string    `json:"issues"`
	Severity string      `json:"severity"`
}

// Result represents the result of a dry-run analysis
type Result struct {
	TotalProcessed int     `json:"total_processed"`
	Timestamp      string  `json:"timestamp"`
	DisplayUnfit   []Issue `json:"display_unfit"`
	MissingAssets  []Issue `json:"missing_assets"`
	FilteredOut    []Issue `json:"filtered_out"`
	Unresolved     []Issue `json:"unresolved"`
	Summary        Summary `json:"summary"`
}

// Summary provides aggregate statistics
type Summary struct {
	TotalIssues int            `json:"total_issues"`
	ByCategory  map[string]int `json:"by_category"`
	BySeverity  map[string]int `json:"by_severity"`
	ByKind      map[string]int `json:"by_kind"`
}

// Analyzer audits what a sync run would write without writing it.
// It is safe for concurrent use.
type Analyzer struct {
	mu     sync.Mutex
	result *Result
	seen   map[string]bool
}

// NewAnalyzer creates a new dry-run analyzer
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		result: &Result{
			DisplayUnfit:  make([]Issue, 0),
			MissingAssets: make([]Issue, 0),
			FilteredOut:   make([]Issue, 0),
			Unresolved:    make([]Issue, 0),
			Summary: Summary{
				ByCategory: make(map[string]int),
				BySeverity: make(map[string]int),
				ByKind:     make(map[string]int),
			},
		},
		seen: make(map[string]bool),
	}
}

// Filtered records an entry the ingest filter rejected
func (a *Analyzer) Filtered(id int64, kind models.Kind, title string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.count(kind)
	a.result.FilteredOut = append(a.result.FilteredOut, Issue{
		ID: id, Kind: kind, Title: title,
		Issues:   []string{"filtered_out_by_rules"},
		Severity: SeverityInfo,
	})
	a.result.Summary.BySeverity[SeverityInfo]++
}

// Unresolved records an entry whose detail could not be fetched
func (a *Analyzer) Unresolved(id int64, kind models.Kind, title string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.count(kind)
	a.result.Unresolved = append(a.result.Unresolved, Issue{
		ID: id, Kind: kind, Title: title,
		Issues:   []string{"detail_unavailable"},
		Severity: SeverityError,
	})
	a.result.Summary.BySeverity[SeverityError]++
}

// Inspect audits a fetched record
func (a *Analyzer) Inspect(record models.Record) {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := fmt.Sprintf("%s/%d", record.MediaKind(), record.MediaID())
	if a.seen[key] {
		return
	}
	a.seen[key] = true
	a.count(record.MediaKind())

	var poster, backdrop, overview string
	var videos []models.Video
	var images models.Images
	switch r := record.(type) {
	case *models.Movie:
		poster, backdrop, overview = r.PosterPath, r.BackdropPath, r.Overview
		videos, images = r.Videos, r.Images.Data()
	case *models.Series:
		poster, backdrop, overview = r.PosterPath, r.BackdropPath, r.Overview
		videos, images = r.Videos, r.Images.Data()
	}

	unfit := make([]string, 0)
	if poster == "" {
		unfit = append(unfit, "missing_poster")
	}
	if backdrop == "" {
		unfit = append(unfit, "missing_backdrop")
	}
	if overview == "" {
		unfit = append(unfit, "missing_overview")
	}
	if len(unfit) > 0 {
		a.result.DisplayUnfit = append(a.result.DisplayUnfit, a.issue(record, unfit, SeverityWarning))
		a.result.Summary.BySeverity[SeverityWarning]++
	}

	assets := make([]string, 0)
	if catalog.FeaturedVideo(videos) == nil {
		assets = append(assets, "missing_trailer")
	}
	if catalog.PickLogo(images.Logos) == nil {
		assets = append(assets, "missing_logo")
	}
	if len(assets) > 0 {
		a.result.MissingAssets = append(a.result.MissingAssets, a.issue(record, assets, SeverityInfo))
		a.result.Summary.BySeverity[SeverityInfo]++
	}
}

func (a *Analyzer) issue(record models.Record, issues []string, severity string) Issue {
	return Issue{
		ID:       record.MediaID(),
		Kind:     record.MediaKind(),
		Title:    record.DisplayTitle(),
		Issues:   issues,
		Severity: severity,
	}
}

func (a *Analyzer) count(kind models.Kind) {
	a.result.TotalProcessed++
	a.result.Summary.ByKind[string(kind)]++
}

// Result finalizes the summary; the analyzer should not be used afterwards
func (a *Analyzer) Result() *Result {
	a.mu.Lock()
	defer a.mu.Unlock()

	r := a.result
	r.Timestamp = time.Now().Format(time.RFC3339)

	// pool workers append in completion order
	for _, list := range [][]Issue{r.DisplayUnfit, r.MissingAssets, r.FilteredOut, r.Unresolved} {
		sort.SliceStable(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	}

	r.Summary.ByCategory["display_unfit"] = len(r.DisplayUnfit)
	r.Summary.ByCategory["missing_assets"] = len(r.MissingAssets)
	r.Summary.ByCategory["filtered_out"] = len(r.FilteredOut)
	r.Summary.ByCategory["unresolved"] = len(r.Unresolved)
	r.Summary.TotalIssues = len(r.DisplayUnfit) + len(r.MissingAssets) + len(r.FilteredOut) + len(r.Unresolved)
	return r
}

// WriteJSON writes the full result as indented JSON
func WriteJSON(w io.Writer, result *Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// PrintSummary prints a human-readable summary of the dry-run results
func PrintSummary(w io.Writer, result *Result) {
	fmt.Fprintln(w, "\n=== Dry-Run Sync Summary ===")
	fmt.Fprintf(w, "Timestamp: %s\n", result.Timestamp)
	fmt.Fprintf(w, "Total Processed: %d items\n", result.TotalProcessed)
	fmt.Fprintf(w, "Total Issues: %d\n\n", result.Summary.TotalIssues)

	printCounts(w, "By Category:", result.Summary.ByCategory)
	printCounts(w, "\nBy Severity:", result.Summary.BySeverity)
	printCounts(w, "\nBy Kind:", result.Summary.ByKind)

	printSample(w, "Display Unfit", result.DisplayUnfit)
	printSample(w, "Unresolved", result.Unresolved)

	if len(result.MissingAssets) > 0 {
		fmt.Fprintf(w, "\n=== Missing Assets: %d items ===\n", len(result.MissingAssets))
	}
	if len(result.FilteredOut) > 0 {
		fmt.Fprintf(w, "\n=== Filtered Out: %d items ===\n", len(result.FilteredOut))
	}
}

func printCounts(w io.Writer, heading string, counts map[string]int) {
	fmt.Fprintln(w, heading)
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if counts[k] > 0 {
			fmt.Fprintf(w, "  - %s: %d\n", k, counts[k])
		}
	}
}

func printSample(w io.Writer, heading string, issues []Issue) {
	if len(issues) == 0 {
		return
	}
	fmt.Fprintf(w, "\n=== Sample %s Items (first 5) ===\n", heading)
	for i, issue := range issues {
		if i >= 5 {
			break
		}
		fmt.Fprintf(w, "\n%d. %s (%s %d)\n", i+1, issue.Title, issue.Kind, issue.ID)
		fmt.Fprintf(w, "   Issues: %v\n", issue.Issues)
		fmt.Fprintf(w, "   Severity: %s\n", issue.Severity)
	}
}
