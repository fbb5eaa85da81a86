package types

import (
	"encoding/json"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/fxamacker/cbor/v2"
)

func TestBigJSON(t *testing.T) {
	c := qt.New(t)

	// field elements travel as literal decimal strings
	v := new(BigInt).SetUint64(1234567890)
	data, err := json.Marshal(v)
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, `"1234567890"`)

	var back BigInt
	c.Assert(json.Unmarshal(data, &back), qt.IsNil)
	c.Assert(back.Equal(v), qt.IsTrue)

	// hex input is accepted too
	c.Assert(json.Unmarshal([]byte(`"0xff"`), &back), qt.IsNil)
	c.Assert(back.MathBigInt().Int64(), qt.Equals, int64(255))
}

func TestBigCBOR(t *testing.T) {
	c := qt.New(t)

	// CBOR carries the compact big-endian byte form
	v := new(BigInt).SetUint64(0xff00)
	data, err := cbor.Marshal(v)
	c.Assert(err, qt.IsNil)

	var raw []byte
	c.Assert(cbor.Unmarshal(data, &raw), qt.IsNil)
	c.Assert(raw, qt.DeepEquals, []byte{0xff, 0x00})

	var back BigInt
	c.Assert(cbor.Unmarshal(data, &back), qt.IsNil)
	c.Assert(back.Equal(v), qt.IsTrue)
}

func TestBigUnmarshalTextHex(t *testing.T) {
	c := qt.New(t)
	var bi BigInt
	c.Assert(bi.UnmarshalText([]byte("0xff")), qt.IsNil)
	c.Assert(bi.MathBigInt().Int64(), qt.Equals, int64(255))
	c.Assert(bi.UnmarshalText([]byte("255")), qt.IsNil)
	c.Assert(bi.MathBigInt().Int64(), qt.Equals, int64(255))
	c.Assert(bi.UnmarshalText([]byte("not a number")), qt.IsNotNil)
}

func TestBigEqual(t *testing.T) {
	c := qt.New(t)
	a := new(BigInt).SetUint64(42)
	b := new(BigInt).SetUint64(42)
	c.Assert(a.Equal(b), qt.IsTrue)
	c.Assert(a.Equal(new(BigInt).SetUint64(43)), qt.IsFalse)
	var unset *BigInt
	c.Assert(unset.Equal(new(BigInt)), qt.IsTrue)
}

func TestBigString(t *testing.T) {
	c := qt.New(t)
	c.Assert(new(BigInt).SetUint64(7).String(), qt.Equals, "7")
	var unset *BigInt
	c.Assert(unset.String(), qt.Equals, "")
}
