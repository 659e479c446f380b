package types

// StatusCredential is the decoded shape of a BitstringStatusList status
// credential file as stored in the repository: a Verifiable Credential
// whose credentialSubject carries the compressed bitstring.
type StatusCredential struct {
	Context           []string               `json:"@context"`
	ID                string                 `json:"id"`
	Type              []string               `json:"type"`
	Issuer            string                 `json:"issuer"`
	ValidFrom         string                 `json:"validFrom,omitempty"`
	CredentialSubject BitstringStatusSubject `json:"credentialSubject"`
	Proof             map[string]interface{} `json:"proof,omitempty"`
}

// BitstringStatusSubject is the credentialSubject of a BitstringStatusList
// status credential: the purpose it serves and the compressed bitstring
// itself.
type BitstringStatusSubject struct {
	ID            string `json:"id"`
	Type          string `json:"type"`
	StatusPurpose string `json:"statusPurpose"`
	EncodedList   string `json:"encodedList"`
}

// BitstringStatusListContextURL is the JSON-LD context entry that marks a
// credential as a BitstringStatusList credential.
const BitstringStatusListContextURL = "https://www.w3.org/ns/credentials/status/v1"

// BitstringStatusListType is the VC type tag for a status-list credential.
const BitstringStatusListType = "BitstringStatusListCredential"

// BitstringStatusListSubjectType is the credentialSubject type tag.
const BitstringStatusListSubjectType = "BitstringStatusList"
