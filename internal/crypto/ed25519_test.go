package crypto

import (
	"crypto/ed25519"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEd25519KeyPairFromSeed(t *testing.T) {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(i)
	}

	keyPair, err := NewEd25519KeyPairFromSeed(seed)
	require.NoError(t, err)
	assert.NotNil(t, keyPair)

	keyPair2, err := NewEd25519KeyPairFromSeed(seed)
	require.NoError(t, err)
	assert.Equal(t, keyPair.PublicKey, keyPair2.PublicKey)
	assert.Equal(t, keyPair.PrivateKey, keyPair2.PrivateKey)
}

func TestEd25519KeyPairInvalidSeedSize(t *testing.T) {
	_, err := NewEd25519KeyPairFromSeed([]byte("too short"))
	assert.Error(t, err)
}

func TestEd25519KeyPairPublicKeyBase64(t *testing.T) {
	seed := make([]byte, ed25519.SeedSize)
	keyPair, err := NewEd25519KeyPairFromSeed(seed)
	require.NoError(t, err)

	pubB64 := keyPair.PublicKeyBase64()
	assert.NotEmpty(t, pubB64)

	_, err = base64.StdEncoding.DecodeString(pubB64)
	assert.NoError(t, err)
}

func TestEd25519SignerSignAndVerify(t *testing.T) {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(i)
	}
	keyPair, err := NewEd25519KeyPairFromSeed(seed)
	require.NoError(t, err)
	signer := NewEd25519Signer(keyPair)

	testData := []byte("Hello, World!")

	signature, err := signer.Sign(testData)
	require.NoError(t, err)
	assert.Len(t, signature, ed25519.SignatureSize)
	assert.True(t, ed25519.Verify(keyPair.PublicKey, testData, signature))
	assert.False(t, ed25519.Verify(keyPair.PublicKey, []byte("wrong data"), signature))
}

func TestEd25519SignerSignBase64(t *testing.T) {
	seed := make([]byte, ed25519.SeedSize)
	keyPair, err := NewEd25519KeyPairFromSeed(seed)
	require.NoError(t, err)
	signer := NewEd25519Signer(keyPair)

	testData := []byte("Test data for base64 signing")

	sigB64, err := signer.SignBase64(testData)
	require.NoError(t, err)
	assert.NotEmpty(t, sigB64)

	sig, err := base64.StdEncoding.DecodeString(sigB64)
	require.NoError(t, err)
	assert.True(t, ed25519.Verify(signer.PublicKey(), testData, sig))
}

func TestEd25519SignerFromSeedDeterministic(t *testing.T) {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(42)
	}

	signer, err := NewEd25519SignerFromSeed(seed)
	require.NoError(t, err)

	testData := []byte("Deterministic test")
	signature1, err := signer.Sign(testData)
	require.NoError(t, err)

	signer2, err := NewEd25519SignerFromSeed(seed)
	require.NoError(t, err)

	signature2, err := signer2.Sign(testData)
	require.NoError(t, err)

	assert.Equal(t, signature1, signature2)
}

func TestEd25519SignerNoPrivateKey(t *testing.T) {
	signer := &Ed25519Signer{}
	_, err := signer.Sign([]byte("data"))
	assert.ErrorIs(t, err, ErrNoPrivateKey)
	assert.Nil(t, signer.PublicKey())
	assert.Empty(t, signer.PublicKeyBase64())
}
