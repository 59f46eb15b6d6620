// Package migrations embebe los archivos SQL de goose para ejecutarlos al
// arranque sin depender del filesystem del contenedor.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
