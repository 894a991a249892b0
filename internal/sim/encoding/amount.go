package encoding

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"gopkg.in/yaml.v3"
)

// Amount is a non-negative integer quantity in base units. It accepts decimal
// strings, 0x-prefixed hex strings and plain numbers in JSON and YAML, and always
// serializes as a decimal string so values above 2^53 survive JS clients.
type Amount struct {
	v *big.Int
}

func NewAmount(v *big.Int) Amount {
	if v == nil {
		return Amount{}
	}
	return Amount{v: new(big.Int).Set(v)}
}

func AmountFromUint64(v uint64) Amount {
	return Amount{v: new(big.Int).SetUint64(v)}
}

// Big returns a fresh copy; the zero Amount yields 0.
func (a Amount) Big() *big.Int {
	if a.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a.v)
}

func (a Amount) IsZero() bool { return a.v == nil || a.v.Sign() == 0 }

func (a Amount) String() string {
	if a.v == nil {
		return "0"
	}
	return a.v.String()
}

func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, nil
	}
	if hexDigits, ok := cutHexPrefix(s); ok {
		v, ok := new(big.Int).SetString(hexDigits, 16)
		if !ok {
			return Amount{}, fmt.Errorf("invalid amount %q", s)
		}
		return checkAmount(s, v)
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		// Allow scientific shorthand such as "1e18" used in configs.
		f, _, err := big.ParseFloat(s, 10, 512, big.ToNearestEven)
		if err != nil {
			return Amount{}, fmt.Errorf("invalid amount %q", s)
		}
		v, acc := f.Int(nil)
		if v == nil || acc != big.Exact {
			return Amount{}, fmt.Errorf("amount %q is not an integer", s)
		}
		return checkAmount(s, v)
	}
	return checkAmount(s, v)
}

func cutHexPrefix(s string) (string, bool) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:], true
	}
	return s, false
}

func checkAmount(raw string, v *big.Int) (Amount, error) {
	if v.Sign() < 0 {
		return Amount{}, fmt.Errorf("amount %q is negative", raw)
	}
	if v.BitLen() > 256 {
		return Amount{}, fmt.Errorf("amount %q exceeds 256 bits", raw)
	}
	return Amount{v: v}, nil
}

func (a Amount) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *Amount) UnmarshalText(b []byte) error {
	v, err := ParseAmount(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) { return json.Marshal(a.String()) }

func (a *Amount) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var n json.Number
		if err2 := json.Unmarshal(b, &n); err2 != nil {
			return fmt.Errorf("amount: %w", err)
		}
		s = n.String()
	}
	return a.UnmarshalText([]byte(s))
}

func (a *Amount) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: amount must be a scalar", node.Line)
	}
	v, err := ParseAmount(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*a = v
	return nil
}

func (a Amount) MarshalYAML() (any, error) { return a.String(), nil }
