// Package analytics computes summary statistics over stored reflections.
package analytics

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/reflectdev/commit-reflect/pkg/models"
)

// Filter narrows which reflections a query considers. A zero Filter
// matches everything.
type Filter struct {
	Project string
	Days    int
}

// TrendPoint is the per-day average of a numeric answer.
type TrendPoint struct {
	Date    string  `json:"date"`
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// Report is the aggregate view produced by Summary.
type Report struct {
	PeriodDays        int            `json:"period_days"`
	Project           string         `json:"project"`
	TotalReflections  int            `json:"total_reflections"`
	AverageConfidence float64        `json:"average_confidence"`
	ByProject         map[string]int `json:"reflections_by_project"`
	ByBranch          map[string]int `json:"reflections_by_branch"`
	RecentBlockers    []string       `json:"recent_blockers"`
	RecentLearnings   []string       `json:"recent_learnings"`
}

// Analytics answers queries over an in-memory reflection slice, typically
// read back from a storage backend.
type Analytics struct {
	reflections []*models.Reflection
}

func New(reflections []*models.Reflection) *Analytics {
	return &Analytics{reflections: reflections}
}

// Count returns the number of reflections matching the filter.
func (a *Analytics) Count(f Filter) int {
	return len(a.filtered(f))
}

// AverageRating averages the numeric answers to a question across matching
// reflections. Non-numeric answers are skipped. Returns false when no
// reflection carries a numeric answer for the question.
func (a *Analytics) AverageRating(questionID string, f Filter) (float64, bool) {
	var sum float64
	var n int
	for _, r := range a.filtered(f) {
		ans, ok := r.AnswerByQuestionID(questionID)
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(ans.Answer), 64)
		if err != nil {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// ByProject groups reflection counts by project name.
func (a *Analytics) ByProject() map[string]int {
	counts := make(map[string]int)
	for _, r := range a.reflections {
		counts[projectOf(r)]++
	}
	return counts
}

// ByBranch groups reflection counts by branch for matching reflections.
func (a *Analytics) ByBranch(f Filter) map[string]int {
	counts := make(map[string]int)
	for _, r := range a.filtered(f) {
		branch := r.CommitContext.Branch
		if branch == "" {
			branch = "unknown"
		}
		counts[branch]++
	}
	return counts
}

// Answers collects non-empty answers to a question from matching
// reflections, newest first, capped at limit.
func (a *Analytics) Answers(questionID string, f Filter, limit int) []string {
	var out []string
	for _, r := range a.filtered(f) {
		ans, ok := r.AnswerByQuestionID(questionID)
		if !ok {
			continue
		}
		text := strings.TrimSpace(ans.Answer)
		if text == "" {
			continue
		}
		out = append(out, text)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// Trend produces the per-day average of a numeric answer, oldest day first.
func (a *Analytics) Trend(questionID string, f Filter) []TrendPoint {
	byDate := make(map[string][]float64)
	for _, r := range a.filtered(f) {
		ans, ok := r.AnswerByQuestionID(questionID)
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(ans.Answer), 64)
		if err != nil {
			continue
		}
		day := r.CreatedAt.Format(time.DateOnly)
		byDate[day] = append(byDate[day], v)
	}

	days := make([]string, 0, len(byDate))
	for day := range byDate {
		days = append(days, day)
	}
	sort.Strings(days)

	points := make([]TrendPoint, 0, len(days))
	for _, day := range days {
		var sum float64
		for _, v := range byDate[day] {
			sum += v
		}
		points = append(points, TrendPoint{
			Date:    day,
			Average: sum / float64(len(byDate[day])),
			Count:   len(byDate[day]),
		})
	}
	return points
}

// Summary assembles the full report for a filter.
func (a *Analytics) Summary(f Filter) *Report {
	confidence, _ := a.AverageRating("confidence", f)
	return &Report{
		PeriodDays:        f.Days,
		Project:           orAll(f.Project),
		TotalReflections:  a.Count(f),
		AverageConfidence: confidence,
		ByProject:         a.ByProject(),
		ByBranch:          a.ByBranch(f),
		RecentBlockers:    a.Answers("blockers_and_friction", f, 5),
		RecentLearnings:   a.Answers("learning", f, 5),
	}
}

func (a *Analytics) filtered(f Filter) []*models.Reflection {
	var cutoff time.Time
	if f.Days > 0 {
		cutoff = time.Now().AddDate(0, 0, -f.Days)
	}

	var out []*models.Reflection
	for _, r := range a.reflections {
		if f.Project != "" && projectOf(r) != f.Project {
			continue
		}
		if f.Days > 0 && r.CreatedAt.Before(cutoff) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func projectOf(r *models.Reflection) string {
	if r.SessionMetadata.ProjectName != "" {
		return r.SessionMetadata.ProjectName
	}
	return "unknown"
}

func orAll(project string) string {
	if project == "" {
		return "all"
	}
	return project
}
