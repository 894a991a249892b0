package ids

import (
	"encoding/hex"
	"strings"
	"testing"

	"galax.network/internal/sim/world/kernel/model"
)

func TestDeriveAddressDeterministic(t *testing.T) {
	world := model.MustAddress("0x00000000000000000000000000000000000000aa")
	creator := model.MustAddress("0x00000000000000000000000000000000000000bb")
	salt := Salt([]byte("planet-one"))

	a := DeriveAddress(world, creator, salt, 1)
	b := DeriveAddress(world, creator, salt, 1)
	if a != b {
		t.Fatalf("derive not deterministic: %s vs %s", a, b)
	}
	if a.IsZero() {
		t.Fatalf("derived zero address")
	}
}

func TestDeriveAddressVariesByInput(t *testing.T) {
	world := model.MustAddress("0x00000000000000000000000000000000000000aa")
	creator := model.MustAddress("0x00000000000000000000000000000000000000bb")
	other := model.MustAddress("0x00000000000000000000000000000000000000cc")
	salt := Salt([]byte{1})

	base := DeriveAddress(world, creator, salt, 1)
	variants := map[string]model.Address{
		"seq":     DeriveAddress(world, creator, salt, 2),
		"salt":    DeriveAddress(world, creator, Salt([]byte{2}), 1),
		"creator": DeriveAddress(world, other, salt, 1),
		"world":   DeriveAddress(other, creator, salt, 1),
	}
	for name, v := range variants {
		if v == base {
			t.Fatalf("changing %s did not change the address", name)
		}
	}
}

func TestBusinessAddressDistinctPerTerritory(t *testing.T) {
	world := model.MustAddress("0x00000000000000000000000000000000000000aa")
	terr := model.MustAddress("0x00000000000000000000000000000000000000dd")
	if BusinessAddress(world, terr, 1, 1) == BusinessAddress(world, terr, 2, 1) {
		t.Fatalf("expected distinct business addresses across territories")
	}
	if BusinessAddress(world, terr, 1, 1) == BusinessAddress(world, terr, 1, 2) {
		t.Fatalf("expected distinct business addresses across ids")
	}
}

func TestSaltPadding(t *testing.T) {
	s := Salt([]byte{0xab})
	if s[0] != 0xab || s[31] != 0 {
		t.Fatalf("unexpected salt padding: %x", s)
	}
	// "5" as bytes32 is 0x35 followed by 31 zero bytes.
	five := Salt([]byte("5"))
	if hex.EncodeToString(five[:]) != "35"+strings.Repeat("00", 31) {
		t.Fatalf("expected right-padded ascii salt, got %x", five)
	}
	long := make([]byte, 40)
	long[0], long[31], long[39] = 1, 7, 9
	if got := Salt(long); got[0] != 1 || got[31] != 7 {
		t.Fatalf("expected leading 32 bytes kept, got %x", got)
	}
}
