package services

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
)

type sha256Hasher struct{}

func (sha256Hasher) Sum256(data []byte) [32]byte {
	return sha256.Sum256(data)
}

func TestCommitmentPreimageUsesDecimalOption(t *testing.T) {
	assert.Equal(t, []byte("12pepper"), CommitmentPreimage(12, []byte("pepper")))
	assert.Equal(t, []byte("0"), CommitmentPreimage(0, nil))
}

func TestComputeCommitmentMatchesDigest(t *testing.T) {
	want := sha256.Sum256([]byte("1secret"))
	assert.Equal(t, want[:], ComputeCommitment(sha256Hasher{}, 1, []byte("secret")))
}

func TestVerifyReveal(t *testing.T) {
	commitment := ComputeCommitment(sha256Hasher{}, 3, []byte("salt"))

	assert.True(t, VerifyReveal(sha256Hasher{}, commitment, 3, []byte("salt")))
	assert.False(t, VerifyReveal(sha256Hasher{}, commitment, 2, []byte("salt")))
	assert.False(t, VerifyReveal(sha256Hasher{}, commitment, 3, []byte("pepper")))
	// "1" || "2salt" and "12" || "salt" share a preimage
	assert.True(t, VerifyReveal(sha256Hasher{}, ComputeCommitment(sha256Hasher{}, 1, []byte("2salt")), 12, []byte("salt")))
	assert.False(t, VerifyReveal(sha256Hasher{}, nil, 3, []byte("salt")))
}
