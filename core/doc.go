// Package core holds the identifiers, enumerations and error taxonomy shared by
// every geobridge package.
//
// Owner and StorageType values mirror the engine's numbering and travel over the
// wire unchanged, so their numeric values must not be reordered.
package core
