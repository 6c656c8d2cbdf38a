package content

import (
	"github.com/keithlinneman/linnemanlabs-sections/internal/xerrors"
)

// ValidationOptions controls what ValidateSnapshot requires beyond a site
// and a home page.
type ValidationOptions struct {
	// MinPages rejects trees with fewer pages. 0 disables the check.
	MinPages int

	RequireSignature bool
}

func DefaultValidationOptions() ValidationOptions {
	return ValidationOptions{MinPages: 1}
}

// ValidateSnapshot is run on every candidate before it replaces the active
// snapshot.
func ValidateSnapshot(snap *Snapshot, opts ValidationOptions) error {
	if snap == nil {
		return xerrors.New("validate: snapshot is nil")
	}
	if snap.FS == nil {
		return xerrors.New("validate: snapshot has nil filesystem")
	}
	if snap.Site == nil {
		return xerrors.Newf("validate: %s missing", SiteFile)
	}
	if _, ok := snap.Pages["/"]; !ok {
		return xerrors.New("validate: no page for /")
	}
	if opts.MinPages > 0 && len(snap.Pages) < opts.MinPages {
		return xerrors.Newf("validate: %d pages, minimum is %d", len(snap.Pages), opts.MinPages)
	}
	if opts.RequireSignature && !snap.Meta.Signed {
		return xerrors.New("validate: bundle is not signed")
	}
	return nil
}
