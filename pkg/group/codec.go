package group

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// encMode is the CBOR encoder mode for group payloads and schemas.
// Configured for deterministic encoding so schema CRCs are stable.
var encMode cbor.EncMode

// decMode is the CBOR decoder mode for group payloads.
var decMode cbor.DecMode

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical, // Deterministic key ordering
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder mode: %v", err))
	}

	// Lenient decoding: stored payloads only reach a handler after the
	// schema CRC matched, but stay tolerant of encoder drift within a build.
	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR decoder mode: %v", err))
	}
}
