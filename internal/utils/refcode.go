package utils

import (
	"crypto/rand"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// RefCodeHookFunc lets tests force the next generated code.
type RefCodeHookFunc func() (code RefCode, override bool)

// NewRefCodeHook, when set, is consulted by NewRefCode before reading random bytes.
var NewRefCodeHook RefCodeHookFunc

// RefCode is a 6-byte sale reference printed as 10 Crockford Base32 characters.
type RefCode [6]byte

const crockfordAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

var crockfordDecodeMap [256]int8

func init() {
	for i := range crockfordDecodeMap {
		crockfordDecodeMap[i] = -1
	}
	for i := 0; i < len(crockfordAlphabet); i++ {
		c := crockfordAlphabet[i]
		crockfordDecodeMap[c] = int8(i)
		crockfordDecodeMap[strings.ToLower(string(c))[0]] = int8(i)
	}
	// Crockford aliases
	for _, c := range []byte{'O', 'o'} {
		crockfordDecodeMap[c] = 0
	}
	for _, c := range []byte{'I', 'i', 'L', 'l'} {
		crockfordDecodeMap[c] = 1
	}
}

func NewRefCode() RefCode {
	if NewRefCodeHook != nil {
		if code, override := NewRefCodeHook(); override {
			return code
		}
	}
	var code RefCode
	if _, err := rand.Read(code[:]); err != nil {
		panic(fmt.Sprintf("refcode: crypto/rand unavailable: %v", err))
	}
	return code
}

func (c RefCode) IsZero() bool {
	return c == RefCode{}
}

// String encodes the 48 bits most significant first, so codes sort like their bytes.
func (c RefCode) String() string {
	var n uint64
	for _, b := range c {
		n = n<<8 | uint64(b)
	}
	out := make([]byte, 10)
	for i := 9; i >= 0; i-- {
		out[i] = crockfordAlphabet[n&0x1F]
		n >>= 5
	}
	return string(out)
}

// ParseRefCode accepts upper or lower case and ignores hyphens and spaces.
func ParseRefCode(s string) (RefCode, error) {
	s = strings.NewReplacer("-", "", " ", "").Replace(s)
	if len(s) != 10 {
		return RefCode{}, errors.New("invalid reference code: must be 10 characters")
	}
	var n uint64
	for i := 0; i < len(s); i++ {
		v := crockfordDecodeMap[s[i]]
		if v < 0 {
			return RefCode{}, fmt.Errorf("invalid reference code: unexpected character %q", s[i])
		}
		n = n<<5 | uint64(v)
	}
	if n>>48 != 0 {
		return RefCode{}, errors.New("invalid reference code: value out of range")
	}
	var code RefCode
	for i := 5; i >= 0; i-- {
		code[i] = byte(n)
		n >>= 8
	}
	return code, nil
}

// Value stores the code in its printed form.
func (c RefCode) Value() (driver.Value, error) {
	return c.String(), nil
}

func (c *RefCode) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case nil:
		*c = RefCode{}
		return nil
	default:
		return fmt.Errorf("refcode: cannot scan %T", src)
	}
	parsed, err := ParseRefCode(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c RefCode) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *RefCode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseRefCode(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
