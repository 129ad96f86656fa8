package services

import (
	"bytes"
	"strconv"
)

// BurnAddress is the reserved null identity that can never be bound as the
// authority target.
const BurnAddress = "SP000000000000000000002Q6VF78"

// Hasher is the digest function commitments are built with.
type Hasher interface {
	Sum256(data []byte) [32]byte
}

// CommitmentPreimage is the decimal form of option followed by salt.
func CommitmentPreimage(option uint32, salt []byte) []byte {
	preimage := strconv.AppendUint(nil, uint64(option), 10)
	return append(preimage, salt...)
}

// ComputeCommitment returns H(decimal(option) || salt).
func ComputeCommitment(hasher Hasher, option uint32, salt []byte) []byte {
	sum := hasher.Sum256(CommitmentPreimage(option, salt))
	return sum[:]
}

// VerifyReveal reports whether option and salt open commitment.
func VerifyReveal(hasher Hasher, commitment []byte, option uint32, salt []byte) bool {
	return bytes.Equal(commitment, ComputeCommitment(hasher, option, salt))
}
