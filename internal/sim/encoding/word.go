package encoding

import "math/big"

// WordSize is the width of one packed integer field (uint256).
const WordSize = 32

// PutWord writes v as a big-endian uint256 into dst[:32]. Values wider than
// 256 bits are truncated to their low 256 bits.
func PutWord(dst []byte, v *big.Int) {
	_ = dst[WordSize-1]
	for i := range dst[:WordSize] {
		dst[i] = 0
	}
	if v == nil || v.Sign() == 0 {
		return
	}
	b := v.Bytes()
	if len(b) > WordSize {
		b = b[len(b)-WordSize:]
	}
	copy(dst[WordSize-len(b):WordSize], b)
}

func PutWordUint64(dst []byte, v uint64) {
	PutWord(dst, new(big.Int).SetUint64(v))
}

func Word(v *big.Int) [WordSize]byte {
	var out [WordSize]byte
	PutWord(out[:], v)
	return out
}
