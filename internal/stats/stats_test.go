package stats

import (
	"testing"
	"time"

	"github.com/idleduelist/server/internal/model"
)

func TestDerive_Deterministic(t *testing.T) {
	base := model.BaseStats{Might: 40, Finesse: 20, Fortitude: 60, Arcana: 10, Insight: 15, Presence: 25}
	a := Derive(base, 30, nil, model.FactionIronwardens)
	b := Derive(base, 30, nil, model.FactionIronwardens)
	if a != b {
		t.Fatalf("Derive is not deterministic: %+v vs %+v", a, b)
	}
}

func TestDerive_CapsEnforced(t *testing.T) {
	base := model.BaseStats{Might: 300, Finesse: 300, Fortitude: 300, Arcana: 300, Insight: 300, Presence: 300}
	d := Derive(base, 100, nil, model.FactionDuskveil)

	if d.DodgeChance > MaxDodgeChance {
		t.Errorf("DodgeChance = %v, want <= %v", d.DodgeChance, MaxDodgeChance)
	}
	if d.CooldownReductionPct > MaxCooldownReductionPct {
		t.Errorf("CooldownReductionPct = %v, want <= %v", d.CooldownReductionPct, MaxCooldownReductionPct)
	}
	if d.CritChance > MaxCritChance {
		t.Errorf("CritChance = %v, want <= %v", d.CritChance, MaxCritChance)
	}
}

func TestDerive_EquipmentAddsModifiers(t *testing.T) {
	base := model.BaseStats{Might: 10}
	unequipped := Derive(base, 1, nil, model.FactionEmberfane)

	sword, err := model.NewEquipment("item-1", "char-1", "Test Blade", model.SlotWeapon, model.RarityRare, model.BaseStats{Might: 50})
	if err != nil {
		t.Fatalf("NewEquipment: %v", err)
	}
	equipped := map[model.EquipSlot]*model.Equipment{model.SlotWeapon: sword}
	withGear := Derive(base, 1, equipped, model.FactionEmberfane)

	if withGear.AttackPower <= unequipped.AttackPower {
		t.Errorf("AttackPower with gear = %d, want > %d", withGear.AttackPower, unequipped.AttackPower)
	}
}

func TestFlagsFor_Breakpoints(t *testing.T) {
	flags := flagsFor(model.BaseStats{Might: 100})
	if !flags.Crossed(0, 0) || !flags.Crossed(0, 1) {
		t.Fatalf("expected Might to cross 50 and 100 breakpoints, got %b", flags)
	}
	if flags.Crossed(0, 2) {
		t.Fatalf("did not expect Might to cross 200 breakpoint")
	}
}

func TestMatchmakingWindow(t *testing.T) {
	cases := []struct {
		ageSeconds int
		want       int32
	}{
		{0, 50},
		{5, 75},
		{25, 175},
		{1000, 500},
	}
	for _, c := range cases {
		got := model.MatchmakingWindow(time.Duration(c.ageSeconds) * time.Second)
		if got != c.want {
			t.Errorf("MatchmakingWindow(%ds) = %d, want %d", c.ageSeconds, got, c.want)
		}
	}
}
