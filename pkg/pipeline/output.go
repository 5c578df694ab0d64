package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/yumyai/locushunter/pkg/genbank"
	"github.com/yumyai/locushunter/pkg/model"
	"github.com/yumyai/locushunter/pkg/render"
)

var tableHeader = []string{"locus", "gene_id", "family", "start", "end", "strand"}

// writeOutputs writes <prefix>.gbk, <prefix>.html and <prefix>.tsv and
// returns their paths.
func writeOutputs(prefix, runID string, loci []*model.Record, labelAttributes []string) ([]string, error) {
	if dir := filepath.Dir(prefix); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}

	gbk := prefix + ".gbk"
	if err := genbank.WriteFile(gbk, loci); err != nil {
		return nil, fmt.Errorf("write %s: %w", gbk, err)
	}

	html := prefix + ".html"
	if err := writeHTML(html, runID, loci, labelAttributes); err != nil {
		return nil, fmt.Errorf("write %s: %w", html, err)
	}

	tsv := prefix + ".tsv"
	if err := writeTable(tsv, loci); err != nil {
		return nil, fmt.Errorf("write %s: %w", tsv, err)
	}
	return []string{gbk, html, tsv}, nil
}

func writeHTML(file, runID string, loci []*model.Record, labelAttributes []string) error {
	fh, err := os.Create(file)
	if err != nil {
		return err
	}
	data := render.BuildLociPage("Locus Hunter", runID, loci, labelAttributes)
	if err := render.RenderLociPage(fh, data); err != nil {
		fh.Close()
		return err
	}
	return fh.Close()
}

// writeTable lists every CDS of the ordered loci. Coordinates are 1-based and
// inclusive, as in GenBank.
func writeTable(file string, loci []*model.Record) error {
	fh, err := os.Create(file)
	if err != nil {
		return err
	}
	w := csv.NewWriter(fh)
	w.Comma = '\t'

	if err := w.Write(tableHeader); err != nil {
		fh.Close()
		return err
	}
	for _, locus := range loci {
		for _, f := range locus.CDS() {
			row := []string{
				locus.Name,
				f.Annotation.GeneID,
				f.Annotation.Family.String(),
				strconv.Itoa(f.Start + 1),
				strconv.Itoa(f.End),
				f.Strand.String(),
			}
			if err := w.Write(row); err != nil {
				fh.Close()
				return err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		fh.Close()
		return err
	}
	return fh.Close()
}
