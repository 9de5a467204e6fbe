package testutil

import (
	"encoding/json"
	"fmt"

	"github.com/qweave/qweave/decode"
)

// MarshalPayload renders a payload the way a workflow step would.
// Panics on marshal failure, which cannot happen for well-formed
// payload structs.
func MarshalPayload(p *decode.Payload) []byte {
	raw, err := json.Marshal(p)
	if err != nil {
		panic(fmt.Sprintf("testutil: marshal payload: %v", err))
	}
	return raw
}

// StatevectorPayload builds an analytic payload from amplitude pairs in
// basis-state order.
func StatevectorPayload(amps []decode.ComplexPair) []byte {
	return MarshalPayload(&decode.Payload{Schema: decode.SchemaResult, Statevector: amps})
}

// CountsPayload builds a sampled payload from per-bitstring tallies.
func CountsPayload(counts map[string]int64) []byte {
	return MarshalPayload(&decode.Payload{Schema: decode.SchemaResult, Counts: counts})
}

// SamplesPayload builds a sampled payload from per-shot bit rows.
func SamplesPayload(rows [][]uint8) []byte {
	return MarshalPayload(&decode.Payload{Schema: decode.SchemaResult, Samples: rows})
}
