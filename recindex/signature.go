package recindex

import (
	"github.com/fxamacker/cbor/v2"
)

// Signature is the per-file record (digest, mtime_ns, ec_id) stored
// under a "m:" key. ECID is a pointer so it can be nil ("absent"),
// which CBOR encodes as its null marker — the state a signature is in
// during the mid-refresh window described by the index builder.
type Signature struct {
	Digest  []byte  `cbor:"digest"`
	MtimeNS int64   `cbor:"mtime_ns"`
	ECID    *uint32 `cbor:"ec_id"`
}

// EncodeSignature serializes a Signature with CBOR, the self-describing
// binary format used for every value in the index.
func EncodeSignature(sig Signature) ([]byte, error) {
	return cbor.Marshal(sig)
}

// DecodeSignature is the inverse of EncodeSignature.
func DecodeSignature(data []byte) (Signature, error) {
	var sig Signature
	err := cbor.Unmarshal(data, &sig)
	return sig, err
}

// HasECID reports whether the signature has been assigned an
// equivalent class, i.e. is not in the mid-operation "no ec_id" state.
func (s Signature) HasECID() bool {
	return s.ECID != nil
}
