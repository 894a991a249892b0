package protocol

import "testing"

func TestIsKnownCode(t *testing.T) {
	if !IsKnownCode("") {
		t.Fatalf("expected empty code accepted")
	}
	for _, c := range KnownCodes() {
		if !IsKnownCode(c) {
			t.Fatalf("expected known code: %q", c)
		}
	}
	if IsKnownCode("E_NOT_DEFINED") {
		t.Fatalf("expected unknown code rejected")
	}
}

func TestKnownCodesMatchTable(t *testing.T) {
	codes := KnownCodes()
	if len(codes) != len(knownCodes) {
		t.Fatalf("KnownCodes()=%d entries, table has %d", len(codes), len(knownCodes))
	}
	seen := map[string]bool{}
	for _, c := range codes {
		if seen[c] {
			t.Fatalf("duplicate code %q", c)
		}
		seen[c] = true
	}
}
