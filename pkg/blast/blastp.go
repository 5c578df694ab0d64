// Package blast runs protein searches through NCBI BLAST+.
package blast

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/yumyai/locushunter/internal/util"
	"github.com/yumyai/locushunter/logger"
	"github.com/yumyai/locushunter/pkg/fasta"
	"github.com/yumyai/locushunter/pkg/model"
	"go.uber.org/zap"
)

const (
	DefaultBlastp      = "blastp"
	DefaultMakeblastdb = "makeblastdb"

	tabularColumns = 12
)

// Client implements model.SearchClient with makeblastdb and blastp -outfmt 6.
type Client struct {
	Blastp      string
	Makeblastdb string
	Threads     int
	// WorkDir receives one scratch directory per search. Empty means the system temp dir.
	WorkDir string
}

// NewClient returns a client running the default executables from PATH.
func NewClient(workDir string, threads int) *Client {
	return &Client{
		Blastp:      DefaultBlastp,
		Makeblastdb: DefaultMakeblastdb,
		Threads:     threads,
		WorkDir:     workDir,
	}
}

func (c *Client) Search(ctx context.Context, queries, library []model.Sequence, evalue float64) ([]model.HitRecord, error) {
	if len(queries) == 0 || len(library) == 0 {
		return nil, nil
	}

	dir, err := os.MkdirTemp(c.WorkDir, "blastp_")
	if err != nil {
		return nil, &model.CollaboratorError{Tool: "blastp", Op: "create work dir", Err: err}
	}

	queryAliased, queryNames := fasta.Alias("q", queries)
	libraryAliased, subjectNames := fasta.Alias("s", library)

	queryFile := filepath.Join(dir, "query.faa")
	libraryFile := filepath.Join(dir, "library.faa")
	dbPrefix := filepath.Join(dir, "library")
	outFile := filepath.Join(dir, "hits.tsv")

	if err := fasta.WriteFile(queryFile, queryAliased); err != nil {
		return nil, &model.CollaboratorError{Tool: "blastp", Op: "write queries", Err: err}
	}
	if err := fasta.WriteFile(libraryFile, libraryAliased); err != nil {
		return nil, &model.CollaboratorError{Tool: "blastp", Op: "write library", Err: err}
	}

	if err := util.RunCommand(ctx, c.makeblastdb(),
		"-in", libraryFile,
		"-dbtype", "prot",
		"-out", dbPrefix,
	); err != nil {
		return nil, &model.CollaboratorError{Tool: "makeblastdb", Op: "build database", Err: err}
	}

	if err := util.RunCommand(ctx, c.blastp(),
		"-query", queryFile,
		"-db", dbPrefix,
		"-evalue", strconv.FormatFloat(evalue, 'g', -1, 64),
		"-outfmt", "6",
		"-num_threads", strconv.Itoa(max(c.Threads, 1)),
		"-out", outFile,
	); err != nil {
		return nil, &model.CollaboratorError{Tool: "blastp", Op: "search", Err: err}
	}

	fh, err := os.Open(outFile)
	if err != nil {
		return nil, &model.CollaboratorError{Tool: "blastp", Op: "read output", Err: err}
	}
	defer fh.Close()

	hits, err := ParseTabular(fh)
	if err != nil {
		return nil, &model.CollaboratorError{Tool: "blastp", Op: "parse output", Err: err}
	}
	for i := range hits {
		query, ok := queryNames[hits[i].QueryID]
		if !ok {
			return nil, &model.CollaboratorError{Tool: "blastp", Op: "parse output", Err: fmt.Errorf("unknown query id %q", hits[i].QueryID)}
		}
		subject, ok := subjectNames[hits[i].SubjectID]
		if !ok {
			return nil, &model.CollaboratorError{Tool: "blastp", Op: "parse output", Err: fmt.Errorf("unknown subject id %q", hits[i].SubjectID)}
		}
		hits[i].QueryID = query
		hits[i].SubjectID = subject
	}

	logger.Debug("blastp finished",
		zap.Int("queries", len(queries)),
		zap.Int("library", len(library)),
		zap.Int("hits", len(hits)),
	)
	return hits, nil
}

func (c *Client) blastp() string {
	if c.Blastp == "" {
		return DefaultBlastp
	}
	return c.Blastp
}

func (c *Client) makeblastdb() string {
	if c.Makeblastdb == "" {
		return DefaultMakeblastdb
	}
	return c.Makeblastdb
}

// ParseTabular reads BLAST outfmt 6 rows. Blank lines and # comments are skipped.
func ParseTabular(r io.Reader) ([]model.HitRecord, error) {
	var hits []model.HitRecord
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		hit, err := parseRow(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		hits = append(hits, hit)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return hits, nil
}

func parseRow(line string) (model.HitRecord, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != tabularColumns {
		return model.HitRecord{}, fmt.Errorf("expected %d columns, got %d", tabularColumns, len(fields))
	}

	var (
		hit  = model.HitRecord{QueryID: fields[0], SubjectID: fields[1]}
		err  error
		ints = []struct {
			dst *int
			src string
		}{
			{&hit.AlignmentLength, fields[3]},
			{&hit.Mismatches, fields[4]},
			{&hit.GapOpens, fields[5]},
			{&hit.QueryStart, fields[6]},
			{&hit.QueryEnd, fields[7]},
			{&hit.SubjectStart, fields[8]},
			{&hit.SubjectEnd, fields[9]},
		}
	)
	if hit.PercentIdentity, err = strconv.ParseFloat(fields[2], 64); err != nil {
		return model.HitRecord{}, fmt.Errorf("percent identity: %w", err)
	}
	for _, f := range ints {
		if *f.dst, err = strconv.Atoi(strings.TrimSpace(f.src)); err != nil {
			return model.HitRecord{}, err
		}
	}
	if hit.EValue, err = strconv.ParseFloat(strings.TrimSpace(fields[10]), 64); err != nil {
		return model.HitRecord{}, fmt.Errorf("evalue: %w", err)
	}
	if hit.BitScore, err = strconv.ParseFloat(strings.TrimSpace(fields[11]), 64); err != nil {
		return model.HitRecord{}, fmt.Errorf("bitscore: %w", err)
	}
	return hit, nil
}
