package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fsroute",
		Short: "File-convention routing for pattern routers",
		Long: `fsroute compiles a directory-of-files routing convention onto a
pattern-based router.

Route files use bracket syntax for dynamic segments:

  api/hello            →  /api/hello
  blog/[slug]          →  /blog/:slug
  catchall/[...rest]   →  /catchall/*rest
  docs/[[section]]     →  /docs and /docs/:section
  api/_middleware      →  middleware for the /api/* subtree`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		routesCmd(),
		serveCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
