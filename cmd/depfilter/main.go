// depfilter narrows lists of records by cascading dependent filters.
package main

import (
	"os"

	"github.com/hupe1980/depfilter/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
