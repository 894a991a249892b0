package tuning

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultsValidate(t *testing.T) {
	d := Defaults()
	if err := d.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if d.Costs.TerritoryCreation.String() != "100000" {
		t.Fatalf("territory cost=%s", d.Costs.TerritoryCreation)
	}
	if !d.IsBusinessType(3) || d.IsBusinessType(0) || d.IsBusinessType(6) {
		t.Fatalf("unexpected business type enumeration")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "tuning.yaml")
	raw := `
world_id: GALAXY_TEST
chain_id: 5
auth:
  personal_sign: true
costs:
  territory_creation: 1e18
vitality:
  max: 100
  initial: 80
skills:
  starter_exp:
    2: "0x10"
    1: 500
`
	if err := os.WriteFile(p, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}
	tu, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tu.WorldID != "GALAXY_TEST" || tu.ChainID != 5 || !tu.Auth.PersonalSign {
		t.Fatalf("unexpected tuning: %+v", tu)
	}
	if tu.Costs.TerritoryCreation.String() != "1000000000000000000" {
		t.Fatalf("territory cost=%s", tu.Costs.TerritoryCreation)
	}
	if tu.Costs.BusinessCreation.String() != "10000" {
		t.Fatalf("business cost default lost: %s", tu.Costs.BusinessCreation)
	}
	if tu.Skills.StarterExp[2].String() != "16" {
		t.Fatalf("starter exp=%s", tu.Skills.StarterExp[2])
	}
	kinds := tu.StarterSkillKinds()
	if len(kinds) != 2 || kinds[0] != 1 || kinds[1] != 2 {
		t.Fatalf("kinds=%v", kinds)
	}
	if tu.BlockMs != 500 {
		t.Fatalf("block_ms default lost: %d", tu.BlockMs)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "tuning.yaml")
	raw := "block_ms: 0\nvitality:\n  max: 10\n  initial: 20\n"
	if err := os.WriteFile(p, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(p)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"block_ms", "vitality.initial"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q missing %q", err, want)
		}
	}
}

func TestDigestStable(t *testing.T) {
	a, b := Defaults(), Defaults()
	if a.Digest() == "" || a.Digest() != b.Digest() {
		t.Fatalf("digest not stable")
	}
	b.ChainID = 1
	if a.Digest() == b.Digest() {
		t.Fatalf("digest ignores chain id")
	}
}
