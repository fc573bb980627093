// Package fs exposes the repo's embedded assets: database migrations and
// email templates.
package fs

import "embed"

//go:embed migrations all:assets
var FS embed.FS
