package catalog

import "errors"

// Errors returned by Catalog operations (§4.2, §7 "Catalog IO").
var (
	// ErrUnknownField is returned by UpdateField for a field name outside
	// updatableFields (§4.2: "unknown fields fail with
	// CatalogError::UnknownField").
	ErrUnknownField = errors.New("catalog: unknown field")
)
