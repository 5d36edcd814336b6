// Package source loads release manifests. The canonical origin is a static
// releases.json served over HTTP; GitHub and GitLab release listings are
// supported as alternative origins and mapped onto the same manifest shape.
package source

import (
	"context"

	"github.com/valksor/go-updatebridge/internal/manifest"
)

// Source loads the ordered sequence of release entries from its origin.
type Source interface {
	Fetch(ctx context.Context) ([]manifest.ReleaseEntry, error)
}
