package contracts

import (
	"testing"
)

func TestFormationRules_Validate(t *testing.T) {
	tests := []struct {
		name    string
		rules   FormationRules
		wantErr bool
	}{
		{
			name:    "default rules",
			rules:   DefaultFormationRules(),
			wantErr: false,
		},
		{
			name: "zero total",
			rules: FormationRules{
				MinGoalkeepers: 1, MaxGoalkeepers: 1,
				MinDefenders: 3, MaxDefenders: 5,
				MinMidfielders: 2, MaxMidfielders: 5,
				MinForwards: 1, MaxForwards: 3,
			},
			wantErr: true,
		},
		{
			name: "inverted bounds",
			rules: FormationRules{
				MinGoalkeepers: 1, MaxGoalkeepers: 1,
				MinDefenders: 5, MaxDefenders: 3,
				MinMidfielders: 2, MaxMidfielders: 5,
				MinForwards: 1, MaxForwards: 3,
				TotalPlayers: 11,
			},
			wantErr: true,
		},
		{
			name: "maxima cannot reach total",
			rules: FormationRules{
				MinGoalkeepers: 1, MaxGoalkeepers: 1,
				MinDefenders: 1, MaxDefenders: 2,
				MinMidfielders: 1, MaxMidfielders: 2,
				MinForwards: 1, MaxForwards: 2,
				TotalPlayers: 11,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rules.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFormationRules_Satisfies(t *testing.T) {
	rules := DefaultFormationRules()

	xi := &SelectedXI{Round: 10, Formation: "4-4-2"}
	positions := []Position{PositionGKP}
	for i := 0; i < 4; i++ {
		positions = append(positions, PositionDEF)
	}
	for i := 0; i < 4; i++ {
		positions = append(positions, PositionMID)
	}
	positions = append(positions, PositionFWD, PositionFWD)
	for i, p := range positions {
		xi.Slots = append(xi.Slots, XISlot{Slot: i + 1, PlayerID: int64(i + 1), Position: p})
	}

	if err := rules.Satisfies(xi); err != nil {
		t.Errorf("valid 4-4-2 rejected: %v", err)
	}

	// Ten players only
	short := &SelectedXI{Slots: xi.Slots[:10]}
	if err := rules.Satisfies(short); err == nil {
		t.Error("expected error for 10-player team")
	}

	// Duplicate player
	dup := &SelectedXI{Slots: append([]XISlot{}, xi.Slots...)}
	dup.Slots[10].PlayerID = dup.Slots[9].PlayerID
	if err := rules.Satisfies(dup); err == nil {
		t.Error("expected error for duplicate player")
	}

	// Six defenders
	wide := &SelectedXI{Slots: append([]XISlot{}, xi.Slots...)}
	wide.Slots[9].Position = PositionDEF
	wide.Slots[10].Position = PositionDEF
	if err := rules.Satisfies(wide); err == nil {
		t.Error("expected error for 6 defenders")
	}
}

func TestPositionFromElementType(t *testing.T) {
	tests := []struct {
		elementType int
		want        Position
	}{
		{1, PositionGKP},
		{2, PositionDEF},
		{3, PositionMID},
		{4, PositionFWD},
		{99, PositionMID},
	}

	for _, tt := range tests {
		if got := PositionFromElementType(tt.elementType); got != tt.want {
			t.Errorf("PositionFromElementType(%d) = %s, want %s", tt.elementType, got, tt.want)
		}
	}
}

func TestSelectedXI_PositionCounts(t *testing.T) {
	xi := &SelectedXI{
		Slots: []XISlot{
			{PlayerID: 1, Position: PositionGKP},
			{PlayerID: 2, Position: PositionDEF},
			{PlayerID: 3, Position: PositionDEF},
			{PlayerID: 4, Position: PositionMID},
			{PlayerID: 5, Position: PositionFWD},
		},
	}

	counts := xi.PositionCounts()
	if counts[PositionDEF] != 2 {
		t.Errorf("DEF count = %d, want 2", counts[PositionDEF])
	}
	if counts[PositionGKP] != 1 || counts[PositionMID] != 1 || counts[PositionFWD] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}
}
