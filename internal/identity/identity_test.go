package identity

import (
	"testing"
	"time"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/require"

	"github.com/ParichayaHQ/status-manager/pkg/types"
)

func rawSeed32() string {
	return "thirty-two-byte-seed-string!!!!!"
}

func multibaseSeed32() string {
	return "z" + base58.Encode([]byte(rawSeed32()))
}

func TestDeriveDidKeyFromRawSeed(t *testing.T) {
	id, err := Derive(types.DidMethodKey, rawSeed32(), "")
	require.NoError(t, err)
	require.Contains(t, id.DID, "did:key:z")
	require.Contains(t, id.VerificationMethodID, id.DID+"#")
}

func TestDeriveDidKeyFromMultibaseSeed(t *testing.T) {
	id, err := Derive(types.DidMethodKey, multibaseSeed32(), "")
	require.NoError(t, err)
	require.Contains(t, id.DID, "did:key:z")
}

func TestDeriveRejectsShortSeed(t *testing.T) {
	_, err := Derive(types.DidMethodKey, "too-short", "")
	require.Error(t, err)
}

func TestDeriveDidWebRequiresURL(t *testing.T) {
	_, err := Derive(types.DidMethodWeb, rawSeed32(), "")
	require.Error(t, err)
}

func TestDeriveDidWebFromURL(t *testing.T) {
	id, err := Derive(types.DidMethodWeb, rawSeed32(), "https://issuer.example.com/status")
	require.NoError(t, err)
	require.Equal(t, "did:web:issuer.example.com:status", id.DID)
}

func TestSignAttachesProof(t *testing.T) {
	id, err := Derive(types.DidMethodKey, rawSeed32(), "")
	require.NoError(t, err)

	cred := types.Credential{
		"@context": "https://www.w3.org/ns/credentials/v2",
		"id":       "urn:uuid:test",
		"type":     []interface{}{"VerifiableCredential"},
	}

	signed, err := id.Sign(cred, time.Unix(0, 0))
	require.NoError(t, err)

	proof, ok := signed["proof"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "Ed25519Signature2020", proof["type"])
	require.Equal(t, id.VerificationMethodID, proof["verificationMethod"])
	require.Contains(t, proof["proofValue"], "z")
}

func TestSameSeedDerivesSameDID(t *testing.T) {
	id1, err := Derive(types.DidMethodKey, rawSeed32(), "")
	require.NoError(t, err)
	id2, err := Derive(types.DidMethodKey, rawSeed32(), "")
	require.NoError(t, err)
	require.Equal(t, id1.DID, id2.DID)
}
