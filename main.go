package main

import (
	"embed"

	"github.com/cliossg/sitesmith/cmd"
)

//go:embed assets/migrations/sqlite/*.sql assets/migrations/mysql/*.sql
//go:embed assets/static
var assetsFS embed.FS

func main() {
	cmd.Execute(assetsFS)
}
