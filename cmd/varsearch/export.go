package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	domexport "github.com/kailas-cloud/varsearch/internal/domain/export"
)

var (
	exportForm   formFlags
	exportFormat string
	exportAll    bool
	exportOutDir string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Download the matching records as csv or xlsx",
	Example: heredoc.Doc(`
		varsearch export -f UF=SP
		varsearch export --format xlsx -o ./downloads -q "acme"
		varsearch export --all -f Contribuinte=true
	`),
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s := current.session

		loadSchema(ctx, s, cmd.ErrOrStderr())
		if err := exportForm.apply(s); err != nil {
			return err
		}

		var downloads []domexport.Download
		if exportAll {
			all, err := s.ExportAll(ctx)
			if err != nil {
				return err
			}
			downloads = all
		} else {
			f, err := domexport.ParseFormat(exportFormat)
			if err != nil {
				return err
			}
			d, err := s.Export(ctx, f)
			if err != nil {
				return err
			}
			downloads = []domexport.Download{d}
		}

		files := make([]downloadJSON, 0, len(downloads))
		for _, d := range downloads {
			path, err := writeDownload(exportOutDir, d)
			if err != nil {
				return err
			}
			files = append(files, downloadJSON{
				Format:      d.Format,
				Path:        path,
				ContentType: d.ContentType,
				Bytes:       len(d.Data),
			})
		}
		printDownloads(cmd.OutOrStdout(), files)
		return nil
	},
}

// writeDownload saves d under dir using the server-provided file name.
func writeDownload(dir string, d domexport.Download) (string, error) {
	name := filepath.Base(d.Filename)
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = domexport.DefaultFilename("", d.Format)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, d.Data, 0o644); err != nil { //nolint:gosec // exported files are meant to be shared
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

func init() {
	exportForm.register(exportCmd, false)
	exportCmd.Flags().StringVar(&exportFormat, "format", string(domexport.CSV), "export format: csv or xlsx")
	exportCmd.Flags().BoolVar(&exportAll, "all", false, "export every supported format in parallel")
	exportCmd.Flags().StringVarP(&exportOutDir, "out", "o", ".", "directory to write files into")
}
