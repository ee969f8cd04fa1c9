package conversation

import "testing"

func TestParseAssigneeTypeFallsBackToMe(t *testing.T) {
	tests := []struct {
		raw  int
		want AssigneeType
	}{
		{0, AssigneeTypeMe},
		{1, AssigneeTypeUnassigned},
		{2, AssigneeTypeAll},
		// Out-of-range ids silently map to "me"; the unset zero value
		// lands there as the intentional default.
		{-5, AssigneeTypeMe},
		{3, AssigneeTypeMe},
		{99, AssigneeTypeMe},
	}

	for _, tt := range tests {
		if got := ParseAssigneeType(tt.raw); got != tt.want {
			t.Errorf("ParseAssigneeType(%d) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}
