package app

import (
	"fmt"
	"strings"
)

// Section is one of the three panels of the shell.
type Section int

const (
	SectionDashboard Section = iota
	SectionReports
	SectionSettings
)

var sections = []Section{SectionDashboard, SectionReports, SectionSettings}

// Sections returns every section in display order.
func Sections() []Section {
	out := make([]Section, len(sections))
	copy(out, sections)
	return out
}

// String returns the identifier used on the wire and on the command line.
func (s Section) String() string {
	switch s {
	case SectionDashboard:
		return "dashboard"
	case SectionReports:
		return "reports"
	case SectionSettings:
		return "settings"
	default:
		return fmt.Sprintf("Section(%d)", int(s))
	}
}

// Title returns the label shown on the section's control.
func (s Section) Title() string {
	switch s {
	case SectionDashboard:
		return "Dashboard"
	case SectionReports:
		return "Reports"
	case SectionSettings:
		return "Settings"
	default:
		return s.String()
	}
}

// Valid reports whether s is one of the three sections.
func (s Section) Valid() bool {
	return s >= SectionDashboard && s <= SectionSettings
}

// ParseSection resolves a section identifier, ignoring case and surrounding
// space.
func ParseSection(name string) (Section, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "dashboard":
		return SectionDashboard, nil
	case "reports":
		return SectionReports, nil
	case "settings":
		return SectionSettings, nil
	default:
		return 0, fmt.Errorf("unknown section %q (want dashboard, reports or settings)", name)
	}
}

// Control is the state of one navigation control and its panel.
type Control struct {
	Section Section
	Active  bool // control highlighted
	Visible bool // panel shown
}

// Navigation tracks which section is shown. The zero value shows the
// Dashboard.
type Navigation struct {
	active Section
}

// NewNavigation returns navigation showing the Dashboard.
func NewNavigation() Navigation {
	return Navigation{active: SectionDashboard}
}

// Activate shows section and hides the other two. Invalid sections are
// ignored.
func (n *Navigation) Activate(section Section) {
	if !section.Valid() {
		return
	}
	n.active = section
}

// Active returns the shown section.
func (n Navigation) Active() Section {
	return n.active
}

// Controls returns the state of every control in display order.
func (n Navigation) Controls() []Control {
	controls := make([]Control, 0, len(sections))
	for _, s := range sections {
		on := s == n.active
		controls = append(controls, Control{Section: s, Active: on, Visible: on})
	}
	return controls
}
