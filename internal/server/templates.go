package server

import (
	"embed"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"assignboard/internal/models"
)

//go:embed web/templates/*.html
var webTemplates embed.FS

// now is replaced in tests to pin relative due dates.
var now = time.Now

// parseTemplates loads every embedded page with the helper functions.
func parseTemplates() (*template.Template, error) {
	tmpl, err := template.New("").Funcs(templateFuncs()).ParseFS(webTemplates, "web/templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return tmpl, nil
}

// templateFuncs lists the helpers available inside the pages.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"due":       dueLabel,
		"dueRel":    dueRelative,
		"scope":     scopeLabel,
		"ids":       joinIDs,
		"count":     countLabel,
		"roleLabel": roleLabel,
	}
}

// dueLabel renders an assignment's due date as YYYY-MM-DD, the text the
// API sent when it is not a date, or "No due date".
func dueLabel(a models.Assignment) string {
	if due := a.DueText(); due != "" {
		return due
	}
	return "No due date"
}

// dueRelative renders "3 days from now" style hints for a due date.
func dueRelative(t *time.Time) string {
	if t == nil {
		return ""
	}
	return humanize.RelTime(*t, now(), "ago", "from now")
}

// scopeLabel names who an assignment targets.
func scopeLabel(a models.Assignment) string {
	switch a.Scope() {
	case models.ScopeTeam:
		return "Team " + strconv.FormatInt(*a.TeamID, 10)
	case models.ScopeIndividual:
		return "Individual"
	}
	return "General"
}

// joinIDs renders ids as a comma separated list.
func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ", ")
}

// countLabel renders n with thousands separators and a plural noun.
func countLabel(n int, noun string) string {
	label := humanize.Comma(int64(n)) + " " + noun
	if n != 1 {
		label += "s"
	}
	return label
}

// roleLabel turns "team_manager" into "team manager".
func roleLabel(r models.Role) string {
	return strings.ReplaceAll(string(r), "_", " ")
}
