// Package deploy implements the optional post-update static-site
// publish hook: after a status credential changes, a site serving it
// (e.g. GitHub Pages) may need a nudge to rebuild.
package deploy

import "context"

// StaticSiteDeployer is a narrow capability triggered after a
// successful allocate/update operation. Implementations must be cheap
// and must never fail the surrounding operation — errors are logged by
// the caller, not propagated into the critical section's retry loop.
type StaticSiteDeployer interface {
	Deploy(ctx context.Context) error
}

// NoOp never triggers a deploy. It is the default when no site is
// configured.
type NoOp struct{}

func (NoOp) Deploy(ctx context.Context) error { return nil }

var _ StaticSiteDeployer = NoOp{}
