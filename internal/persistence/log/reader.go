package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/klauspost/compress/zstd"

	"galax.network/internal/sim/world"
)

const maxLineBytes = 64 << 20

// ReadJSONL decodes every line of a zstd JSONL file in order, stopping at the
// first error fn returns.
func ReadJSONL(path string, fn func(line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for sc.Scan() {
		if len(sc.Bytes()) == 0 {
			continue
		}
		if err := fn(sc.Bytes()); err != nil {
			return err
		}
	}
	return sc.Err()
}

// BlockFiles lists block log files in chronological order.
func BlockFiles(worldDir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(BlocksDir(worldDir), "blocks-*.jsonl.zst"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// ReadBlocks streams every logged block with Height > after, in height order.
// Heights must be contiguous; a gap means a log file is missing.
func ReadBlocks(worldDir string, after uint64, fn func(world.BlockLogEntry) error) error {
	files, err := BlockFiles(worldDir)
	if err != nil {
		return err
	}
	next := after + 1
	for _, path := range files {
		err := ReadJSONL(path, func(line []byte) error {
			var e world.BlockLogEntry
			if err := json.Unmarshal(line, &e); err != nil {
				return fmt.Errorf("%s: %w", filepath.Base(path), err)
			}
			if e.Height <= after {
				return nil
			}
			if e.Height != next {
				return fmt.Errorf("%s: block %d out of sequence (want %d)", filepath.Base(path), e.Height, next)
			}
			next++
			return fn(e)
		})
		if err != nil {
			return err
		}
	}
	return nil
}
