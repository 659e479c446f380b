package types

// Purpose is the intended meaning of a status bit: revocation or
// suspension. A credential's revocation bit, once set, is never cleared
// by any other purpose transition — see the updater.
type Purpose string

const (
	Revocation Purpose = "revocation"
	Suspension Purpose = "suspension"
)

// Purposes lists every purpose a manager tracks, in a stable order used
// whenever the code must iterate deterministically (bootstrap, repo-state
// validation, metrics).
var Purposes = []Purpose{Revocation, Suspension}

func (p Purpose) Valid() bool {
	return p == Revocation || p == Suspension
}
