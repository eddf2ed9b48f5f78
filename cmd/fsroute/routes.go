package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fsroute/fsroute/pkg/routepath"
)

// routesCmd compiles file paths and prints the resulting route table.
func routesCmd() *cobra.Command {
	var baseDir string

	cmd := &cobra.Command{
		Use:   "routes [paths...]",
		Short: "Compile file paths and print the route table",
		Long: `Compile one or more route file paths and print the patterns they
register. Directory arguments are walked recursively.

Examples:

  fsroute routes api/hello.ts blog/[slug].ts
  fsroute routes --base functions ./functions`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("no paths given")
			}

			paths, err := collectPaths(args)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "FILE\tKIND\tPATTERN\tARRAY PARAMS\tDEPTH")
			for _, p := range paths {
				compiled := routepath.Compile(p, baseDir)
				kind := "route"
				if compiled.IsMiddleware {
					kind = "middleware"
				}
				for _, r := range compiled.Routes {
					arrays := strings.Join(r.ArrayParams, ",")
					if arrays == "" {
						arrays = "-"
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", p, kind, r.Pattern, arrays, r.Depth)
				}
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&baseDir, "base", "", "directory prefix stripped from each path")
	return cmd
}

// collectPaths expands directory arguments into their files.
func collectPaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			// Treat unknown paths as literal route paths so the command
			// works on conventions that only exist remotely.
			paths = append(paths, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			paths = append(paths, filepath.ToSlash(path))
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(paths)
	return paths, nil
}
