// Package migrations embeds the ordered, forward-only SQL schema units.
//
// Files are named NNNNN_<name>.sql and carry only a "-- +goose Up" section.
// New units are appended with the next version number; applied units are never
// edited.
package migrations

import "embed"

// FS holds every migration unit shipped with the binary.
//
//go:embed *.sql
var FS embed.FS
