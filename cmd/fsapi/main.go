// Command fsapi serves a sandboxed file-storage API and maintains its
// access log.
package main

import (
	"context"
	"os"

	"github.com/creative280/proyecto-fs-servicios/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
