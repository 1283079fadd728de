package marker

import (
	"testing"

	"github.com/voisilab/voisimap/internal/ppn"
)

func TestForPPN_ZoneColors(t *testing.T) {
	tests := []struct {
		name string
		zone ppn.Zone
		want string
	}{
		{"urban", ppn.ZoneUrban, ColorUrban},
		{"rural", ppn.ZoneRural, ColorRural},
		{"mixed", ppn.ZoneMixed, ColorMixed},
		{"unknown zone falls back to gray", ppn.Zone("Coastal"), ColorUnknownZone},
		{"empty zone falls back to gray", ppn.Zone(""), ColorUnknownZone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := ForPPN(tt.zone, ppn.StatusActive)
			if d.Color != tt.want {
				t.Errorf("expected color %s, got %s", tt.want, d.Color)
			}
			if d.Kind != KindPPN {
				t.Errorf("expected kind %s, got %s", KindPPN, d.Kind)
			}
		})
	}
}

func TestForPPN_StatusAccent(t *testing.T) {
	if d := ForPPN(ppn.ZoneUrban, ppn.StatusActive); d.AccentColor != AccentActive {
		t.Errorf("active status should use %s, got %s", AccentActive, d.AccentColor)
	}
	if d := ForPPN(ppn.ZoneUrban, ppn.StatusPending); d.AccentColor != AccentPending {
		t.Errorf("pending status should use %s, got %s", AccentPending, d.AccentColor)
	}
	// Any non-active status maps to the pending accent.
	if d := ForPPN(ppn.ZoneUrban, ppn.Status("closed")); d.AccentColor != AccentPending {
		t.Errorf("unknown status should use %s, got %s", AccentPending, d.AccentColor)
	}
}

func TestForPPN_Deterministic(t *testing.T) {
	a := ForPPN(ppn.ZoneRural, ppn.StatusActive)
	b := ForPPN(ppn.ZoneRural, ppn.StatusActive)
	if a != b {
		t.Error("descriptors for identical inputs should be equal")
	}
}

func TestForUser(t *testing.T) {
	d := ForUser()
	if d.Kind != KindUser {
		t.Errorf("expected kind %s, got %s", KindUser, d.Kind)
	}
	if !d.Pulsing {
		t.Error("user marker must pulse")
	}
	if d.AccentColor != "" {
		t.Error("user marker has no status accent")
	}
}
