package types

import "encoding/json"

// VC11ContextURL and VC20ContextURL are the two @context dialects a
// submitted credential's first context entry must match.
const (
	VC11ContextURL = "https://www.w3.org/2018/credentials/v1"
	VC20ContextURL = "https://www.w3.org/ns/credentials/v2"
)

// Credential is a schema-loose Verifiable Credential, handled as an opaque
// JSON object rather than a fixed struct: callers may submit VC 1.1 or VC
// 2.0 documents, and the manager only ever reads a handful of top-level
// fields before attaching or reading a credentialStatus entry.
type Credential map[string]interface{}

// ParseCredential decodes raw JSON into a Credential without validating
// its shape beyond being a JSON object.
func ParseCredential(raw []byte) (Credential, error) {
	var c Credential
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	return c, nil
}

// Context returns the credential's normalized @context list. A single
// string context is wrapped in a one-element slice; a missing @context
// yields an empty slice.
func (c Credential) Context() []string {
	v, ok := c["@context"]
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case string:
		return []string{t}
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// WithContext returns a copy of the credential with ctx merged into its
// @context, appending any entries not already present.
func (c Credential) WithContext(ctx ...string) Credential {
	existing := c.Context()
	have := make(map[string]bool, len(existing))
	merged := append([]string(nil), existing...)
	for _, e := range existing {
		have[e] = true
	}
	for _, e := range ctx {
		if !have[e] {
			merged = append(merged, e)
			have[e] = true
		}
	}
	out := c.clone()
	if len(merged) == 1 {
		out["@context"] = merged[0]
	} else {
		ctxAny := make([]interface{}, len(merged))
		for i, m := range merged {
			ctxAny[i] = m
		}
		out["@context"] = ctxAny
	}
	return out
}

// ID returns the credential's top-level id, if any.
func (c Credential) ID() string {
	s, _ := c["id"].(string)
	return s
}

// Issuer returns the credential's issuer, handling both the bare-string
// and {"id": "..."} object forms used across VC 1.1 and VC 2.0 documents.
func (c Credential) Issuer() string {
	switch v := c["issuer"].(type) {
	case string:
		return v
	case map[string]interface{}:
		s, _ := v["id"].(string)
		return s
	default:
		return ""
	}
}

// Subject returns the credential's top-level credentialSubject.id, if
// present. credentialSubject may be an object or an array of objects;
// only the first is consulted, matching the manager's single-subject
// assumption.
func (c Credential) Subject() string {
	switch v := c["credentialSubject"].(type) {
	case map[string]interface{}:
		s, _ := v["id"].(string)
		return s
	case []interface{}:
		if len(v) == 0 {
			return ""
		}
		if m, ok := v[0].(map[string]interface{}); ok {
			s, _ := m["id"].(string)
			return s
		}
	}
	return ""
}

// WithCredentialStatus returns a copy of the credential with its
// credentialStatus field set to entries, replacing any that existed.
func (c Credential) WithCredentialStatus(entries ...map[string]interface{}) Credential {
	out := c.clone()
	if len(entries) == 1 {
		out["credentialStatus"] = entries[0]
		return out
	}
	arr := make([]interface{}, len(entries))
	for i, e := range entries {
		arr[i] = e
	}
	out["credentialStatus"] = arr
	return out
}

// WithProof returns a copy of the credential with its proof field set.
func (c Credential) WithProof(proof map[string]interface{}) Credential {
	out := c.clone()
	out["proof"] = proof
	return out
}

// WithID returns a copy of the credential with its top-level id set.
func (c Credential) WithID(id string) Credential {
	out := c.clone()
	out["id"] = id
	return out
}

// Stripped returns a copy of the credential with any pre-existing
// credentialStatus and proof fields removed, the starting point for
// (re)attaching a fresh status.
func (c Credential) Stripped() Credential {
	out := c.clone()
	delete(out, "credentialStatus")
	delete(out, "proof")
	return out
}

func (c Credential) clone() Credential {
	out := make(Credential, len(c)+2)
	for k, v := range c {
		out[k] = v
	}
	return out
}
