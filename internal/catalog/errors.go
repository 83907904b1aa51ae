package catalog

import "errors"

var (
	ErrCatalogEmpty = errors.New("catalog is empty")
	ErrNoMPEGFrame  = errors.New("no valid MPEG frame found")
)
