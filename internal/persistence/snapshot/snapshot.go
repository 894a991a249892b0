package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
)

const Version = 1

type Header struct {
	Version int    `json:"version"`
	WorldID string `json:"world_id"`
	Height  uint64 `json:"height"`
	Digest  string `json:"digest,omitempty"`
}

// SnapshotV1 is a full ledger image at the end of block Header.Height.
// Addresses are 0x hex and amounts are decimal strings.
type SnapshotV1 struct {
	Header Header `json:"header"`

	DomainAddress string `json:"domain_address"`
	ChainID       string `json:"chain_id"`
	WorldAddress  string `json:"world_address"`

	CatalogDigest string `json:"catalog_digest,omitempty"`
	TuningDigest  string `json:"tuning_digest,omitempty"`

	Participants []ParticipantV1 `json:"participants"`
	Territories  []TerritoryV1   `json:"territories"`
	Balances     []BalanceV1     `json:"balances"`
}

type ParticipantV1 struct {
	Address   string    `json:"address"`
	Hunger    string    `json:"hunger"`
	Thirst    string    `json:"thirst"`
	Energy    string    `json:"energy"`
	Skills    []SkillV1 `json:"skills,omitempty"`
	Nonce     uint64    `json:"nonce"`
	Territory uint64    `json:"territory,omitempty"`
}

type SkillV1 struct {
	Kind  uint32 `json:"kind"`
	Level uint32 `json:"level"`
	Exp   string `json:"exp"`
}

type TerritoryV1 struct {
	ID            uint64       `json:"id"`
	Address       string       `json:"address"`
	Owner         string       `json:"owner"`
	Name          string       `json:"name"`
	MetadataURI   string       `json:"metadata_uri,omitempty"`
	Salt          string       `json:"salt"`
	DeclaredValue string       `json:"declared_value"`
	CreatedBlock  uint64       `json:"created_block"`
	Members       []string     `json:"members,omitempty"`
	Businesses    []BusinessV1 `json:"businesses,omitempty"`
}

type BusinessV1 struct {
	ID           uint64 `json:"id"`
	Address      string `json:"address"`
	Name         string `json:"name"`
	Type         uint32 `json:"type"`
	Owner        string `json:"owner"`
	CreatedBlock uint64 `json:"created_block"`
}

type BalanceV1 struct {
	Holder string `json:"holder"`
	ID     uint64 `json:"id"`
	Amount string `json:"amount"`
}

func WriteSnapshot(path string, snap SnapshotV1) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 256*1024)

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// The header line is for tooling; gob carries it too.
	if _, err := br.ReadBytes('\n'); err != nil {
		return snap, fmt.Errorf("read header: %w", err)
	}
	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	if snap.Header.Version != Version {
		return snap, fmt.Errorf("unsupported snapshot version %d", snap.Header.Version)
	}
	return snap, nil
}

// ReadHeader reads only the JSON header line.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()
	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("decode header: %w", err)
	}
	return h, nil
}

const fileSuffix = ".snap.zst"

func PathFor(dir string, height uint64) string {
	return filepath.Join(dir, strconv.FormatUint(height, 10)+fileSuffix)
}

var ErrNoSnapshot = errors.New("no snapshot found")

// Latest returns the snapshot path with the greatest height in dir.
func Latest(dir string) (string, uint64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", 0, ErrNoSnapshot
		}
		return "", 0, err
	}
	var heights []uint64
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		h, err := strconv.ParseUint(strings.TrimSuffix(name, fileSuffix), 10, 64)
		if err != nil {
			continue
		}
		heights = append(heights, h)
	}
	if len(heights) == 0 {
		return "", 0, ErrNoSnapshot
	}
	sort.Slice(heights, func(i, j int) bool { return heights[i] < heights[j] })
	h := heights[len(heights)-1]
	return PathFor(dir, h), h, nil
}
