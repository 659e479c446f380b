// Package composer builds signed BitstringStatusList status credentials
// from an encoded bitstring and the issuer's identity.
package composer

import (
	"strconv"
	"time"

	"github.com/ParichayaHQ/status-manager/internal/identity"
	"github.com/ParichayaHQ/status-manager/pkg/apperr"
	"github.com/ParichayaHQ/status-manager/pkg/types"
)

// Compose builds and signs a status credential for statusCredentialID,
// serving purpose, with encodedList as its compressed bitstring. baseURL
// is the status repository's published pages base; the credential's id
// and its subject id are both baseURL/statusCredentialID, matching
// where the file will actually be served from.
func Compose(id *identity.Identity, baseURL, statusCredentialID string, purpose types.Purpose, encodedList string, issuedAt time.Time) (*types.StatusCredential, error) {
	credentialID := baseURL + "/" + statusCredentialID

	cred := types.Credential{
		"@context": []interface{}{
			types.VC20ContextURL,
			types.BitstringStatusListContextURL,
		},
		"id":        credentialID,
		"type":      []interface{}{"VerifiableCredential", types.BitstringStatusListType},
		"issuer":    id.DID,
		"validFrom": issuedAt.UTC().Format(time.RFC3339),
		"credentialSubject": map[string]interface{}{
			"id":            credentialID,
			"type":          types.BitstringStatusListSubjectType,
			"statusPurpose": string(purpose),
			"encodedList":   encodedList,
		},
	}

	signed, err := id.Sign(cred, issuedAt)
	if err != nil {
		return nil, apperr.Wrap(apperr.BadRequest, "composer.Compose", "failed to sign status credential", err)
	}

	return decodeStatusCredential(signed)
}

func decodeStatusCredential(cred types.Credential) (*types.StatusCredential, error) {
	subjectRaw, _ := cred["credentialSubject"].(map[string]interface{})

	out := &types.StatusCredential{
		ID:     cred.ID(),
		Issuer: cred.Issuer(),
		CredentialSubject: types.BitstringStatusSubject{
			ID:            asString(subjectRaw["id"]),
			Type:          asString(subjectRaw["type"]),
			StatusPurpose: asString(subjectRaw["statusPurpose"]),
			EncodedList:   asString(subjectRaw["encodedList"]),
		},
	}
	for _, c := range cred.Context() {
		out.Context = append(out.Context, c)
	}
	if typeList, ok := cred["type"].([]interface{}); ok {
		for _, t := range typeList {
			if s, ok := t.(string); ok {
				out.Type = append(out.Type, s)
			}
		}
	}
	out.ValidFrom, _ = cred["validFrom"].(string)
	out.Proof, _ = cred["proof"].(map[string]interface{})
	return out, nil
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

// CredentialStatusEntry builds the credentialStatus object attached to
// an issued credential, pointing at one purpose's status list entry.
// The entry id is the status list credential's URL suffixed with the
// index it refers to; statusListIndex is serialized as a decimal
// string, per the BitstringStatusList entry shape.
func CredentialStatusEntry(statusCredentialURL string, purpose types.Purpose, statusListIndex int) map[string]interface{} {
	return map[string]interface{}{
		"id":                   statusCredentialURL + "#" + strconv.Itoa(statusListIndex),
		"type":                 "BitstringStatusListEntry",
		"statusPurpose":        string(purpose),
		"statusListIndex":      strconv.Itoa(statusListIndex),
		"statusListCredential": statusCredentialURL,
	}
}
