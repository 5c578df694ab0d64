// Package fasta reads query proteins and writes the inputs of the external tools.
package fasta

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/yumyai/locushunter/pkg/model"
)

const lineWidth = 60

func init() {
	// Translations may carry stop codons or ambiguity codes.
	seq.ValidateSeq = false
}

// ReadSequences reads every protein record of a (possibly gzipped) FASTA file.
func ReadSequences(file string) ([]model.Sequence, error) {
	reader, err := fastx.NewReader(seq.Protein, file, "")
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", file, err)
	}
	defer reader.Close()

	var out []model.Sequence
	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		out = append(out, model.Sequence{
			ID:       string(record.ID),
			Residues: string(record.Seq.Seq),
		})
	}
	return out, nil
}

// Write emits seqs as FASTA wrapped at 60 residues.
func Write(w io.Writer, seqs []model.Sequence) error {
	bw := bufio.NewWriter(w)
	for _, s := range seqs {
		if _, err := fmt.Fprintf(bw, ">%s\n", s.ID); err != nil {
			return err
		}
		for i := 0; i < len(s.Residues); i += lineWidth {
			end := min(i+lineWidth, len(s.Residues))
			if _, err := fmt.Fprintf(bw, "%s\n", s.Residues[i:end]); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

func WriteFile(file string, seqs []model.Sequence) error {
	fh, err := os.Create(file)
	if err != nil {
		return err
	}
	if err := Write(fh, seqs); err != nil {
		fh.Close()
		return err
	}
	return fh.Close()
}

// Alias renames seqs to <prefix><ordinal> so tools that truncate or rewrite
// headers cannot mangle ids. The returned map restores the original ids.
func Alias(prefix string, seqs []model.Sequence) ([]model.Sequence, map[string]string) {
	aliased := make([]model.Sequence, len(seqs))
	names := make(map[string]string, len(seqs))
	for i, s := range seqs {
		alias := fmt.Sprintf("%s%06d", prefix, i+1)
		aliased[i] = model.Sequence{ID: alias, Residues: s.Residues}
		names[alias] = s.ID
	}
	return aliased, names
}
