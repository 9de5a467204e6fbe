package workflow

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainJob is the domain prefix for job fingerprints.
// Version suffix enables future algorithm migration.
const DomainJob = "qweave/job/v1"

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// JobFingerprint computes the content-addressed identity of one circuit
// job: serialized circuit, operator list and backend specs. Jobs with
// the same fingerprint have the same expected result distribution, which
// is what makes the result cache safe. The fingerprint is stable across
// restarts given the same inputs.
func JobFingerprint(qasm string, operators []string, backendSpecs string) (string, error) {
	ops := make([]any, len(operators))
	for i, op := range operators {
		ops[i] = op
	}

	obj := map[string]any{
		"circuit":       qasm,
		"operators":     ops,
		"backend_specs": backendSpecs,
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("JobFingerprint: failed to marshal: %w", err)
	}

	return hashWithDomain(DomainJob, canonical), nil
}

// MustJobFingerprint is like JobFingerprint but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustJobFingerprint(qasm string, operators []string, backendSpecs string) string {
	fp, err := JobFingerprint(qasm, operators, backendSpecs)
	if err != nil {
		panic(err)
	}
	return fp
}
