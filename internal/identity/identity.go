// Package identity derives the issuer's signing identity from a DID seed
// and attaches Ed25519Signature2020 proofs to status credentials.
package identity

import (
	"crypto/ed25519"
	"strings"
	"time"

	"github.com/mr-tron/base58"

	icrypto "github.com/ParichayaHQ/status-manager/internal/crypto"
	"github.com/ParichayaHQ/status-manager/pkg/apperr"
	"github.com/ParichayaHQ/status-manager/pkg/types"
)

// ed25519MulticodecPrefix is the multicodec varint prefix for an Ed25519
// public key (0xed, 0x01), as used by did:key identifiers.
var ed25519MulticodecPrefix = []byte{0xed, 0x01}

// Identity is the issuer's derived signing identity: a DID, its
// underlying Ed25519 key pair, and the verification method id that
// proofs reference.
type Identity struct {
	DID                 string
	VerificationMethodID string
	signer               *icrypto.Ed25519Signer
}

// Derive builds an Identity from a DID seed. The seed is either a
// multibase "z"-prefixed base58btc-encoded 32-byte value, or a raw UTF-8
// string of at least 32 bytes (only the first 32 bytes are used). Any
// other shape is rejected as InvalidDidSeed.
//
// didWebURL is required and used verbatim when method is did:web; it is
// ignored for did:key.
func Derive(method types.DidMethod, seed string, didWebURL string) (*Identity, error) {
	seedBytes, err := decodeSeed(seed)
	if err != nil {
		return nil, err
	}

	signer, err := icrypto.NewEd25519SignerFromSeed(seedBytes)
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidDidSeed, "identity.Derive", "failed to derive key pair from seed", err)
	}

	multibaseKey := encodeMultibaseEd25519(signer.PublicKey())

	switch method {
	case types.DidMethodKey:
		did := "did:key:" + multibaseKey
		return &Identity{
			DID:                  did,
			VerificationMethodID: did + "#" + multibaseKey,
			signer:               signer,
		}, nil
	case types.DidMethodWeb:
		if didWebURL == "" {
			return nil, apperr.New(apperr.BadRequest, "identity.Derive", "didWebUrl is required for did:web")
		}
		did, err := didWebFromURL(didWebURL)
		if err != nil {
			return nil, err
		}
		return &Identity{
			DID:                  did,
			VerificationMethodID: did + "#" + multibaseKey,
			signer:               signer,
		}, nil
	default:
		return nil, apperr.New(apperr.BadRequest, "identity.Derive", "unsupported did method: "+string(method))
	}
}

// decodeSeed accepts either a multibase "z"-prefixed base58btc string
// decoding to exactly 32 bytes, or any other UTF-8 string of at least 32
// bytes (truncated to the first 32).
func decodeSeed(seed string) ([]byte, error) {
	if strings.HasPrefix(seed, "z") {
		decoded, err := base58.Decode(seed[1:])
		if err != nil {
			return nil, apperr.Wrap(apperr.InvalidDidSeed, "identity.decodeSeed", "invalid multibase seed", err)
		}
		if len(decoded) != ed25519.SeedSize {
			return nil, apperr.New(apperr.InvalidDidSeed, "identity.decodeSeed", "multibase seed must decode to 32 bytes")
		}
		return decoded, nil
	}

	if len(seed) < ed25519.SeedSize {
		return nil, apperr.New(apperr.InvalidDidSeed, "identity.decodeSeed", "seed must be multibase or at least 32 bytes")
	}
	return []byte(seed)[:ed25519.SeedSize], nil
}

func encodeMultibaseEd25519(pub ed25519.PublicKey) string {
	prefixed := make([]byte, 0, len(ed25519MulticodecPrefix)+len(pub))
	prefixed = append(prefixed, ed25519MulticodecPrefix...)
	prefixed = append(prefixed, pub...)
	return "z" + base58.Encode(prefixed)
}

func didWebFromURL(rawURL string) (string, error) {
	u := strings.TrimPrefix(rawURL, "https://")
	u = strings.TrimPrefix(u, "http://")
	u = strings.TrimSuffix(u, "/")
	if u == "" {
		return "", apperr.New(apperr.BadRequest, "identity.didWebFromURL", "empty didWebUrl")
	}
	parts := strings.Split(u, "/")
	host := parts[0]
	rest := parts[1:]
	did := "did:web:" + strings.ReplaceAll(host, ":", "%3A")
	for _, p := range rest {
		did += ":" + p
	}
	return did, nil
}

// Sign attaches an Ed25519Signature2020 linked-data proof to credential,
// created at created. Credential fields set by the caller (including any
// prior proof) are replaced.
func (id *Identity) Sign(credential types.Credential, created time.Time) (types.Credential, error) {
	canonical, err := canonicalize(credential)
	if err != nil {
		return nil, apperr.Wrap(apperr.BadRequest, "identity.Sign", "failed to canonicalize credential", err)
	}

	sigB64, err := id.signer.SignBase64(canonical)
	if err != nil {
		return nil, apperr.Wrap(apperr.BadRequest, "identity.Sign", "failed to sign credential", err)
	}

	proof := map[string]interface{}{
		"type":               "Ed25519Signature2020",
		"created":            created.UTC().Format(time.RFC3339),
		"verificationMethod": id.VerificationMethodID,
		"proofPurpose":       "assertionMethod",
		"proofValue":         "z" + sigB64,
	}
	return credential.WithProof(proof), nil
}

// canonicalize produces a deterministic byte representation of a
// credential to sign over, omitting any existing proof field.
func canonicalize(credential types.Credential) ([]byte, error) {
	withoutProof := make(types.Credential, len(credential))
	for k, v := range credential {
		if k == "proof" {
			continue
		}
		withoutProof[k] = v
	}
	return canonicalJSON(withoutProof)
}
