package allocator

import (
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/ParichayaHQ/status-manager/pkg/apperr"
	"github.com/ParichayaHQ/status-manager/pkg/types"
)

// generateCredentialID mints a fresh v4 UUID URN, used when a submitted
// credential arrives without an id.
func generateCredentialID() string {
	return "urn:uuid:" + uuid.NewString()
}

// checkContextDialect validates that ctx's first entry is a recognized
// VC dialect and reports which one, so the caller knows whether the
// BitstringStatusList context still needs appending (VC 1.1 credentials
// need it; VC 2.0 documents already carry equivalent status vocabulary
// via their own context).
func checkContextDialect(ctx []string) (isVC11 bool, err error) {
	if len(ctx) == 0 {
		return false, apperr.New(apperr.BadRequest, "allocator.checkContextDialect", "unsupported @context")
	}
	switch ctx[0] {
	case types.VC11ContextURL:
		return true, nil
	case types.VC20ContextURL:
		return false, nil
	default:
		return false, apperr.New(apperr.BadRequest, "allocator.checkContextDialect", "unsupported @context")
	}
}

// checkCredentialID enforces the id-format and length rules: a
// credential id must be a URL, a UUID URN, or a DID, and no longer than
// MaxCredentialIDLength.
func checkCredentialID(id string) error {
	if len(id) > types.MaxCredentialIDLength {
		return apperr.New(apperr.BadRequest, "allocator.checkCredentialID", "credential id exceeds maximum length")
	}
	if strings.HasPrefix(id, "did:") {
		return nil
	}
	if strings.HasPrefix(id, "urn:uuid:") {
		return nil
	}
	if u, err := url.Parse(id); err == nil && u.Scheme != "" && u.Host != "" {
		return nil
	}
	return apperr.New(apperr.BadRequest, "allocator.checkCredentialID", "credential id must be a URL, urn:uuid, or DID")
}
