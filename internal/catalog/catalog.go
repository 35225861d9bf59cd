// Package catalog is the read-mostly registry of bookable resources.  The
// engine reads base rates and capacity attributes from here; catalog
// management (creating and editing resources) happens through separate
// administrative tooling and is not part of the reservation paths.
package catalog

import (
    "context"
    "errors"

    "github.com/iliyamo/resource-reservation/internal/model"
)

// ErrResourceNotFound is returned when the requested resource does not
// exist in the catalog.
var ErrResourceNotFound = errors.New("resource not found")

// Catalog exposes read access to resources.  An empty category lists the
// whole catalog.
type Catalog interface {
    GetByID(ctx context.Context, id string) (model.Resource, error)
    List(ctx context.Context, category string) ([]model.Resource, error)
}
