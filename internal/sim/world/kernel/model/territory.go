package model

import (
	"math/big"
	"sort"
)

type Territory struct {
	ID          uint64
	Address     Address
	Owner       Address
	Name        string
	MetadataURI string
	Salt        [32]byte

	DeclaredValue *big.Int
	CreatedBlock  uint64

	// Businesses is append-only; business id N lives at index N-1.
	Businesses []*Business
	Members    map[Address]bool
}

func (t *Territory) IsMember(p Address) bool {
	if t == nil || t.Members == nil {
		return false
	}
	return t.Members[p]
}

func (t *Territory) MemberCount() int {
	n := 0
	for _, active := range t.Members {
		if active {
			n++
		}
	}
	return n
}

func (t *Territory) SortedMembers() []Address {
	out := make([]Address, 0, len(t.Members))
	for a, active := range t.Members {
		if active {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hex() < out[j].Hex() })
	return out
}

func (t *Territory) Business(id uint64) *Business {
	if t == nil || id == 0 || id > uint64(len(t.Businesses)) {
		return nil
	}
	return t.Businesses[id-1]
}

func (t *Territory) Clone() *Territory {
	if t == nil {
		return nil
	}
	cp := *t
	cp.DeclaredValue = cloneInt(t.DeclaredValue)
	cp.Businesses = make([]*Business, len(t.Businesses))
	for i, b := range t.Businesses {
		bb := *b
		cp.Businesses[i] = &bb
	}
	cp.Members = make(map[Address]bool, len(t.Members))
	for a, active := range t.Members {
		cp.Members[a] = active
	}
	return &cp
}

type Business struct {
	ID           uint64
	TerritoryID  uint64
	Address      Address
	Name         string
	Type         uint32
	Owner        Address
	CreatedBlock uint64
}
