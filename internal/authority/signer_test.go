package authority

import (
	"math/big"
	"testing"

	"galax.network/internal/sim/world/feature/auth"
	"galax.network/internal/sim/world/kernel/model"
)

func TestSignHashRecoversAddress(t *testing.T) {
	s, err := Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	h := auth.Keccak256([]byte("hello"))
	sig := s.SignHash(h)
	if len(sig) != auth.SignatureLength {
		t.Fatalf("sig len=%d", len(sig))
	}
	if sig[64] != 27 && sig[64] != 28 {
		t.Fatalf("unexpected v=%d", sig[64])
	}
	got, err := auth.RecoverSigner(h, sig)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if got != s.Address() {
		t.Fatalf("recovered %s want %s", got, s.Address())
	}
}

func TestFromHexRoundTrip(t *testing.T) {
	s, err := Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	again, err := FromHex("0x" + s.PrivateKeyHex())
	if err != nil {
		t.Fatalf("FromHex: %v", err)
	}
	if again.Address() != s.Address() {
		t.Fatalf("address changed after reload")
	}
}

func TestFromHexRejectsBadKeys(t *testing.T) {
	for _, in := range []string{"", "zz", "0x01", "0x" + "00"} {
		if _, err := FromHex(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
	zero := make([]byte, 64)
	for i := range zero {
		zero[i] = '0'
	}
	if _, err := FromHex(string(zero)); err == nil {
		t.Fatalf("expected zero key rejected")
	}
}

func TestAuthorizeVerifies(t *testing.T) {
	s, err := Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	v := auth.Verifier{Domain: model.MustAddress("0x0000000000000000000000000000000000000001"), ChainID: big.NewInt(1)}
	a := s.Authorize(v, 7, 0, auth.ActionJoin)
	if err := v.Verify(s.Address(), 7, 0, auth.ActionJoin, a); err != nil {
		t.Fatalf("verify: %v", err)
	}
}
