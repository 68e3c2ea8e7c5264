package system

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

const defaultDocsDir = "docs/cli"

func NewGenDocsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gendocs",
		Short: "Write Markdown reference pages for the availability CLI",
		Long: `Write one Markdown page per command of simorq-availability, covering
the http, system and schedule command trees.

Pages go to ./docs/cli unless --outdir is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			outDir, _ := cmd.Flags().GetString("outdir")
			written, err := writeDocs(cmd.Root(), outDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "CLI reference written to %s\n", written)
			return nil
		},
	}

	cmd.Flags().String("outdir", defaultDocsDir, "Directory for the generated pages")

	return cmd
}

// writeDocs renders the command tree under root into dir and returns the
// absolute directory used.
func writeDocs(root *cobra.Command, dir string) (string, error) {
	if dir == "" {
		dir = defaultDocsDir
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve docs directory %q: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", fmt.Errorf("create docs directory %q: %w", abs, err)
	}
	if err := doc.GenMarkdownTree(root, abs); err != nil {
		return "", fmt.Errorf("generate CLI docs: %w", err)
	}
	return abs, nil
}
