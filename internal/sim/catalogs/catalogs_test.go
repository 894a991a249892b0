package catalogs

import (
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func configsDir(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime.Caller failed")
	}
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "configs")
}

func TestLoadShippedCatalog(t *testing.T) {
	c, err := Load(configsDir(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(c.Resources.Defs) == 0 || len(c.Resources.Digest) != 64 {
		t.Fatalf("unexpected catalog: defs=%d digest=%q", len(c.Resources.Defs), c.Resources.Digest)
	}
	for i := 1; i < len(c.Resources.Defs); i++ {
		if c.Resources.Defs[i-1].ID >= c.Resources.Defs[i].ID {
			t.Fatalf("defs not sorted by id")
		}
	}
	food, ok := c.Resource(101)
	if !ok || food.Kind != KindItem || food.MaxSupply.IsZero() {
		t.Fatalf("expected capped FOOD item, got %+v", food)
	}
	if !food.Consumable() || food.Restores.Hunger.String() != "20000000000000000000" {
		t.Fatalf("expected FOOD to restore vitality, got %+v", food.Restores)
	}
	if raw, _ := c.Resource(1); raw.Consumable() {
		t.Fatalf("resources are not consumable")
	}
}

func TestParseVitalityCostForms(t *testing.T) {
	raw := `[
	  {"id":1,"name":"ORE","kind":"RESOURCE","recipe":{"max_per_call":"10","vitality_cost":"3"}},
	  {"id":2,"name":"BAR","kind":"RESOURCE","recipe":{"max_per_call":10,"vitality_cost":{"hunger":1,"thirst":"2","energy":"0x3"},
	    "skill_kind":1,"skill_exp_per_unit":"5","inputs":[{"id":1,"per_unit":"2"}]}}
	]`
	c, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ore, _ := c.Resource(1)
	if ore.Recipe.VitalityCost.Thirst.String() != "3" {
		t.Fatalf("uniform vitality cost not applied: %+v", ore.Recipe.VitalityCost)
	}
	bar, _ := c.Resource(2)
	if bar.Recipe.VitalityCost.Energy.String() != "3" || bar.Recipe.Inputs[0].PerUnit.String() != "2" {
		t.Fatalf("unexpected bar recipe: %+v", bar.Recipe)
	}
}

func TestParseRejects(t *testing.T) {
	cases := map[string]string{
		"reserved":   `[{"id":0,"kind":"RESOURCE","recipe":{"max_per_call":"1"}}]`,
		"duplicate":  `[{"id":1,"kind":"RESOURCE","recipe":{"max_per_call":"1"}},{"id":1,"kind":"ITEM","recipe":{"max_per_call":"1"}}]`,
		"kind":       `[{"id":1,"kind":"GAS","recipe":{"max_per_call":"1"}}]`,
		"cap":        `[{"id":1,"kind":"RESOURCE","max_supply":"5","recipe":{"max_per_call":"1"}}]`,
		"max":        `[{"id":1,"kind":"RESOURCE","recipe":{}}]`,
		"self input": `[{"id":1,"kind":"RESOURCE","recipe":{"max_per_call":"1","inputs":[{"id":1,"per_unit":"1"}]}}]`,
		"unknown":    `[{"id":1,"kind":"RESOURCE","recipe":{"max_per_call":"1","inputs":[{"id":9,"per_unit":"1"}]}}]`,
		"restores":   `[{"id":1,"kind":"RESOURCE","restores":"5","recipe":{"max_per_call":"1"}}]`,
	}
	for name, raw := range cases {
		_, err := Parse([]byte(raw))
		if err == nil || !strings.Contains(err.Error(), "resources.json") {
			t.Fatalf("%s: expected resources.json error, got %v", name, err)
		}
	}
}
