// Package tickets is the help-desk ticket data source behind the tickets
// view: the ticket model, status presets, an in-memory store seeded with
// sample tickets and a PostgreSQL store.
package tickets

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/JonMunkholm/gridview/internal/core"
)

// ErrNotFound is returned when no ticket has the requested id.
var ErrNotFound = errors.New("ticket not found")

// Ticket statuses.
const (
	StatusOpen       = "Open"
	StatusInProgress = "In Progress"
	StatusResolved   = "Resolved"
	StatusClosed     = "Closed"
	StatusDropped    = "Dropped"
	StatusOnHold     = "On Hold"
)

// Statuses lists every status in sidebar order.
var Statuses = []string{StatusOpen, StatusInProgress, StatusResolved, StatusClosed, StatusDropped, StatusOnHold}

// Ticket is one help-desk request.
type Ticket struct {
	ID            int       `json:"id"`
	Subject       string    `json:"ticketSubject"`
	Status        string    `json:"ticketStatus"`
	Source        string    `json:"source"`
	DateRequested time.Time `json:"dateRequested"`
	MainCategory  string    `json:"mainCategory"`
	SubCategory   string    `json:"subCategory"`
	ProblemIssue  string    `json:"problemIssue"`
	Description   string    `json:"description"`
}

// Row returns the ticket keyed by the tickets view column ids.
func (t Ticket) Row() core.Row {
	return core.Row{
		"id":            t.ID,
		"ticketSubject": t.Subject,
		"ticketStatus":  t.Status,
		"source":        t.Source,
		"dateRequested": t.DateRequested,
		"mainCategory":  t.MainCategory,
		"subCategory":   t.SubCategory,
		"problemIssue":  t.ProblemIssue,
		"description":   t.Description,
	}
}

// NewTicket is the input of a create request.
type NewTicket struct {
	MainCategory string `json:"mainCategory"`
	SubCategory  string `json:"subCategory"`
	ProblemIssue string `json:"problemIssue"`
	Description  string `json:"description"`
}

// Validate reports the first missing required field.
func (n NewTicket) Validate() error {
	switch {
	case strings.TrimSpace(n.MainCategory) == "":
		return fmt.Errorf("invalid ticket: main category is required")
	case strings.TrimSpace(n.SubCategory) == "":
		return fmt.Errorf("invalid ticket: sub category is required")
	case strings.TrimSpace(n.ProblemIssue) == "":
		return fmt.Errorf("invalid ticket: problem issue is required")
	}
	return nil
}

// build fills the fields a new ticket gets from the portal.
func (n NewTicket) build(id int, now time.Time) Ticket {
	return Ticket{
		ID:            id,
		Subject:       n.ProblemIssue,
		Status:        StatusOpen,
		Source:        "Portal",
		DateRequested: now.UTC(),
		MainCategory:  strings.TrimSpace(n.MainCategory),
		SubCategory:   strings.TrimSpace(n.SubCategory),
		ProblemIssue:  strings.TrimSpace(n.ProblemIssue),
		Description:   n.Description,
	}
}

// NormalizeStatus returns the canonical spelling of status.
func NormalizeStatus(status string) (string, error) {
	for _, s := range Statuses {
		if strings.EqualFold(s, strings.TrimSpace(status)) || Slug(s) == strings.ToLower(strings.TrimSpace(status)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("invalid status %q", status)
}

// Slug returns the URL form of a status: lower case, spaces as dashes.
func Slug(status string) string {
	return strings.ReplaceAll(strings.ToLower(status), " ", "-")
}

// Preset narrows the tickets view to one status before filters apply.
type Preset string

// PresetAll keeps every ticket.
const PresetAll Preset = "all"

// Presets lists the sidebar entries.
func Presets() []Preset {
	out := []Preset{PresetAll}
	for _, s := range Statuses {
		out = append(out, Preset(Slug(s)))
	}
	return out
}

// ParsePreset returns the preset named s, or PresetAll.
func ParsePreset(s string) Preset {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, p := range Presets() {
		if string(p) == s {
			return p
		}
	}
	return PresetAll
}

// Match reports whether t belongs to the preset.
func (p Preset) Match(t Ticket) bool {
	return p == PresetAll || p == "" || Slug(t.Status) == string(p)
}

// Label returns the sidebar caption.
func (p Preset) Label() string {
	if p == PresetAll || p == "" {
		return "All Tickets"
	}
	for _, s := range Statuses {
		if Slug(s) == string(p) {
			return s
		}
	}
	return string(p)
}

// Counts returns the number of tickets per status slug plus "all".
func Counts(list []Ticket) map[string]int {
	counts := map[string]int{string(PresetAll): len(list)}
	for _, t := range list {
		counts[Slug(t.Status)]++
	}
	return counts
}
