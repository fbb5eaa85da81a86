package types

import (
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	qt "github.com/frankban/quicktest"
)

func TestEventIDDerivation(t *testing.T) {
	c := qt.New(t)
	factory := common.HexToAddress("0x00000000000000000000000000000000000000aa")

	id0 := NewEventID(factory, 0)
	id1 := NewEventID(factory, 1)
	c.Assert(id0.IsZero(), qt.IsFalse)
	c.Assert(id0, qt.Not(qt.Equals), id1)
	// same inputs, same id
	c.Assert(NewEventID(factory, 0), qt.Equals, id0)

	other := common.HexToAddress("0x00000000000000000000000000000000000000bb")
	c.Assert(NewEventID(other, 0), qt.Not(qt.Equals), id0)
}

func TestEventIDLimbs(t *testing.T) {
	c := qt.New(t)
	id := NewEventID(common.HexToAddress("0x1234"), 7)

	hi, lo := id.Hi(), id.Lo()
	c.Assert(hi.BitLen() <= EventIDLimbBits, qt.IsTrue)
	c.Assert(lo.BitLen() <= EventIDLimbBits, qt.IsTrue)

	back, err := EventIDFromLimbs(hi, lo)
	c.Assert(err, qt.IsNil)
	c.Assert(back, qt.Equals, id)

	// a limb wider than 128 bits must be rejected
	_, err = EventIDFromLimbs(id.BigInt(), lo)
	c.Assert(err, qt.IsNotNil)
	_, err = EventIDFromLimbs(nil, lo)
	c.Assert(err, qt.IsNotNil)
}

func TestEventIDTextCodec(t *testing.T) {
	c := qt.New(t)
	id := NewEventID(common.HexToAddress("0xabcd"), 42)

	data, err := json.Marshal(id)
	c.Assert(err, qt.IsNil)

	var back EventID
	c.Assert(json.Unmarshal(data, &back), qt.IsNil)
	c.Assert(back, qt.Equals, id)

	fromStr, err := EventIDFromString("0x" + id.String())
	c.Assert(err, qt.IsNil)
	c.Assert(fromStr, qt.Equals, id)

	_, err = EventIDFromString("0102")
	c.Assert(err, qt.IsNotNil)
}
