package db

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS

//go:embed schemas/*.json
var Schemas embed.FS
