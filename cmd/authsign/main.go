// Command authsign acts as an off-ledger authority: it prints the canonical
// authorization message for a participant key and signs it.
package main

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"galax.network/internal/authority"
	"galax.network/internal/sim/tuning"
	"galax.network/internal/sim/world"
	"galax.network/internal/sim/world/feature/auth"
)

type output struct {
	Participant string `json:"participant"`
	PrivateKey  string `json:"private_key,omitempty"`
	Domain      string `json:"domain"`
	ChainID     string `json:"chain_id"`
	Target      uint64 `json:"target"`
	Nonce       uint64 `json:"nonce"`
	Kind        string `json:"kind"`
	Message     string `json:"message"`
	Hash        string `json:"hash"`
	Digest      string `json:"digest"`
	Signature   string `json:"signature"`
}

func main() {
	var (
		keyHex    = flag.String("key", os.Getenv("GALAX_AUTHSIGN_KEY"), "participant private key (hex); empty generates one")
		configDir = flag.String("configs", "./configs", "config directory (tuning.yaml supplies domain and chain id)")
		worldID   = flag.String("world", "", "world id (overrides tuning)")
		target    = flag.Uint64("target", 0, "target territory id")
		nonce     = flag.Uint64("nonce", 0, "participant nonce")
		kind      = flag.String("kind", "join", "action kind: join, produce or a number")
	)
	flag.Parse()

	tune, err := tuning.Load(filepath.Join(*configDir, "tuning.yaml"))
	if err != nil {
		fail(err)
	}
	if *worldID != "" {
		tune.WorldID = *worldID
	}
	cfg, err := world.ConfigFromTuning(tune)
	if err != nil {
		fail(err)
	}
	k, err := parseKind(*kind)
	if err != nil {
		fail(err)
	}

	var signer *authority.Signer
	if strings.TrimSpace(*keyHex) == "" {
		signer, err = authority.Generate()
	} else {
		signer, err = authority.FromHex(*keyHex)
	}
	if err != nil {
		fail(err)
	}

	v := auth.Verifier{Domain: cfg.DomainAddress, ChainID: cfg.ChainID, PersonalSign: cfg.PersonalSign}
	out := sign(v, signer, *target, *nonce, k)
	if *keyHex == "" {
		out.PrivateKey = "0x" + signer.PrivateKeyHex()
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)
}

func sign(v auth.Verifier, s *authority.Signer, target, nonce uint64, kind auth.ActionKind) output {
	m := v.Message(s.Address(), target, nonce, kind)
	hash := m.Hash()
	digest := v.Digest(m)
	a := s.Authorize(v, target, nonce, kind)
	return output{
		Participant: s.Address().Hex(),
		Domain:      v.Domain.Hex(),
		ChainID:     v.ChainID.String(),
		Target:      target,
		Nonce:       nonce,
		Kind:        kind.String(),
		Message:     "0x" + hex.EncodeToString(m.Encode()),
		Hash:        "0x" + hex.EncodeToString(hash[:]),
		Digest:      "0x" + hex.EncodeToString(digest[:]),
		Signature:   "0x" + hex.EncodeToString(a.Signature),
	}
}

func parseKind(s string) (auth.ActionKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "join":
		return auth.ActionJoin, nil
	case "produce":
		return auth.ActionProduce, nil
	case "consume":
		return auth.ActionConsume, nil
	}
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("bad kind %q", s)
	}
	return auth.ActionKind(n), nil
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "authsign:", err)
	os.Exit(1)
}
