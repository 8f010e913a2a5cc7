// Package cbor provides the canonical CBOR encoding used for everything the
// coordinator persists (CoordinatorState, Round, round height). Using a
// single codec package keeps serialization concerns out of the domain
// packages, the same separation the teacher keeps between storage backends
// and common/cbor.
package cbor

import (
	"github.com/fxamacker/cbor/v2"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	eo := cbor.CanonicalEncOptions()
	var err error
	if encMode, err = eo.EncMode(); err != nil {
		panic(err)
	}

	do := cbor.DecOptions{
		// Ceremony artifacts and round state can legitimately contain deep
		// chunk/contribution nesting; keep the default depth generous.
		MaxNestedLevels: 64,
	}
	if decMode, err = do.DecMode(); err != nil {
		panic(err)
	}
}

// Marshal serializes a value to canonical CBOR.
func Marshal(v interface{}) []byte {
	b, err := encMode.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

// Unmarshal deserializes CBOR-encoded data that may come from an untrusted
// source (e.g. a participant-controlled file that merely happens to decode).
// Callers that know the data was written by this coordinator should prefer
// UnmarshalTrusted.
func Unmarshal(data []byte, v interface{}) error {
	return decMode.Unmarshal(data, v)
}

// UnmarshalTrusted deserializes CBOR-encoded data written by this
// coordinator itself (round state, coordinator state). Named distinctly from
// Unmarshal to flag the trust boundary at call sites, mirroring the
// teacher's cbor.UnmarshalTrusted used when loading its own metadata.
func UnmarshalTrusted(data []byte, v interface{}) error {
	return decMode.Unmarshal(data, v)
}
