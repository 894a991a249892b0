package snapshot

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func sample(height uint64) SnapshotV1 {
	return SnapshotV1{
		Header:        Header{Version: Version, WorldID: "GALAXY_TEST", Height: height, Digest: "abc"},
		DomainAddress: "0x00000000000000000000000000000000000000aa",
		ChainID:       "31337",
		WorldAddress:  "0x00000000000000000000000000000000000000bb",
		Participants: []ParticipantV1{{
			Address: "0x00000000000000000000000000000000000000cc",
			Hunger:  "90", Thirst: "90", Energy: "90",
			Skills:    []SkillV1{{Kind: 1, Level: 2, Exp: "150"}},
			Nonce:     3,
			Territory: 1,
		}},
		Territories: []TerritoryV1{{
			ID: 1, Address: "0x00000000000000000000000000000000000000dd", Owner: "0x00000000000000000000000000000000000000ee",
			Name: "Terra", Salt: "00", DeclaredValue: "100", CreatedBlock: 1,
			Members:    []string{"0x00000000000000000000000000000000000000cc"},
			Businesses: []BusinessV1{{ID: 1, Address: "0x00000000000000000000000000000000000000ff", Name: "Mill", Type: 2}},
		}},
		Balances: []BalanceV1{{Holder: "0x00000000000000000000000000000000000000dd", ID: 0, Amount: "200"}},
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	p := PathFor(dir, 42)
	want := sample(42)
	if err := WriteSnapshot(p, want); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ReadSnapshot(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
	h, err := ReadHeader(p)
	if err != nil {
		t.Fatalf("header: %v", err)
	}
	if h != want.Header {
		t.Fatalf("header=%+v", h)
	}
	if _, err := os.Stat(p + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}

func TestLatest(t *testing.T) {
	dir := t.TempDir()
	if _, _, err := Latest(dir); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("expected ErrNoSnapshot, got %v", err)
	}
	for _, h := range []uint64{5, 120, 30} {
		if err := WriteSnapshot(PathFor(dir, h), sample(h)); err != nil {
			t.Fatalf("write %d: %v", h, err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "junk.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	p, h, err := Latest(dir)
	if err != nil || h != 120 || p != PathFor(dir, 120) {
		t.Fatalf("Latest=%q,%d,%v", p, h, err)
	}
}

func TestReadRejectsUnknownVersion(t *testing.T) {
	dir := t.TempDir()
	s := sample(1)
	s.Header.Version = 99
	p := PathFor(dir, 1)
	if err := WriteSnapshot(p, s); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ReadSnapshot(p); err == nil {
		t.Fatalf("expected version error")
	}
}
