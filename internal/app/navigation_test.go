package app

import "testing"

func TestNavigation_ExactlyOneActive(t *testing.T) {
	nav := NewNavigation()

	for _, s := range append(Sections(), SectionDashboard, SectionSettings, SectionSettings) {
		nav.Activate(s)

		active := 0
		for _, c := range nav.Controls() {
			if c.Active != c.Visible {
				t.Errorf("control %v: active=%v visible=%v", c.Section, c.Active, c.Visible)
			}
			if c.Active {
				active++
				if c.Section != s {
					t.Errorf("active control = %v, want %v", c.Section, s)
				}
			}
		}
		if active != 1 {
			t.Errorf("after Activate(%v) %d controls active, want 1", s, active)
		}
	}
}

func TestNavigation_ZeroValueAndInvalid(t *testing.T) {
	var nav Navigation
	if nav.Active() != SectionDashboard {
		t.Errorf("zero value shows %v, want dashboard", nav.Active())
	}

	nav.Activate(SectionReports)
	nav.Activate(Section(9))
	if nav.Active() != SectionReports {
		t.Errorf("invalid Activate changed the section to %v", nav.Active())
	}
}

func TestParseSection(t *testing.T) {
	tests := []struct {
		in      string
		want    Section
		wantErr bool
	}{
		{"dashboard", SectionDashboard, false},
		{" Reports ", SectionReports, false},
		{"SETTINGS", SectionSettings, false},
		{"profile", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseSection(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSection(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseSection(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSectionNames(t *testing.T) {
	for _, s := range Sections() {
		parsed, err := ParseSection(s.String())
		if err != nil || parsed != s {
			t.Errorf("ParseSection(%q) = %v, %v", s.String(), parsed, err)
		}
		if s.Title() == "" {
			t.Errorf("%v has no title", s)
		}
	}
	if Section(7).Valid() {
		t.Error("Section(7) should be invalid")
	}
}
