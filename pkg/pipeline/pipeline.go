// Package pipeline runs a full locus search: read inputs, extract loci, tag
// ortholog families, optionally dereplicate, order, color and write outputs.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/yumyai/locushunter/internal/config"
	"github.com/yumyai/locushunter/internal/util"
	"github.com/yumyai/locushunter/logger"
	"github.com/yumyai/locushunter/pkg/db"
	"github.com/yumyai/locushunter/pkg/fasta"
	"github.com/yumyai/locushunter/pkg/genbank"
	"github.com/yumyai/locushunter/pkg/model"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultColorSeed keeps family colors identical between runs.
const DefaultColorSeed int64 = 1

// Result is what a run produced.
type Result struct {
	RunID   uuid.UUID
	Loci    []*model.Record
	Outputs []string
}

type Pipeline struct {
	cfg     *config.Config
	search  model.SearchClient
	cluster model.ClusterClient

	ColorSeed int64
	// ProgressOut receives the progress bar when cfg.Progress is set.
	ProgressOut io.Writer
}

func New(cfg *config.Config, search model.SearchClient, cluster model.ClusterClient) *Pipeline {
	return &Pipeline{
		cfg:         cfg,
		search:      search,
		cluster:     cluster,
		ColorSeed:   DefaultColorSeed,
		ProgressOut: os.Stderr,
	}
}

// Run executes every stage in order. Configuration errors surface before any
// external tool is started; the first collaborator failure aborts the run.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	started := time.Now()
	cfg := p.cfg
	runID := uuid.New()

	extractor, err := model.NewLocusExtractor(p.search, cfg.EValue, cfg.Extension, cfg.MinHitsPerLocus)
	if err != nil {
		return nil, err
	}
	assigner, err := model.NewOrthologAssigner(p.cluster, cfg.OrthologIdentity)
	if err != nil {
		return nil, err
	}
	orderer := model.NewLocusOrderer(cfg.Threads)

	logger.Info("Start run",
		zap.String("run_id", runID.String()),
		zap.String("query_faa", cfg.QueryFAA),
		zap.String("gbk_dir", cfg.GenbankDir),
	)

	queries, err := fasta.ReadSequences(cfg.QueryFAA)
	if err != nil {
		return nil, &model.CollaboratorError{Tool: "fasta", Op: "read queries", Err: err}
	}
	if len(queries) == 0 {
		return nil, &model.ConfigError{Field: "query-faa", Reason: fmt.Sprintf("%s holds no sequences", cfg.QueryFAA)}
	}

	records, err := readGenomes(cfg.GenbankDir)
	if err != nil {
		return nil, err
	}
	logger.Info("Read inputs",
		zap.Int("queries", len(queries)),
		zap.Int("records", len(records)),
	)

	loci, err := p.extract(ctx, extractor, queries, records)
	if err != nil {
		return nil, err
	}
	if len(loci) == 0 {
		logger.Info("No loci found", zap.String("run_id", runID.String()))
	} else {
		logger.Info("Extracted loci", zap.Int("loci", len(loci)))
	}

	loci, err = assigner.Assign(ctx, loci)
	if err != nil {
		return nil, err
	}
	if cfg.DereplicateLoci {
		loci = model.Dereplicate(loci, cfg.IncludeLocusNames)
	}
	loci, err = orderer.Order(ctx, loci)
	if err != nil {
		return nil, err
	}
	loci = model.AssignColors(loci, p.ColorSeed)

	outputs, err := writeOutputs(cfg.Output, runID.String(), loci, cfg.LabelAttributes)
	if err != nil {
		return nil, err
	}

	if cfg.CatalogPath != "" {
		run := db.Run{
			ID:           runID,
			StartedAt:    started,
			QueryFAA:     cfg.QueryFAA,
			GenbankDir:   cfg.GenbankDir,
			EValue:       cfg.EValue,
			Extension:    cfg.Extension,
			Identity:     cfg.OrthologIdentity,
			Dereplicated: cfg.DereplicateLoci,
		}
		if err := saveRun(ctx, cfg.CatalogPath, run, loci); err != nil {
			return nil, err
		}
	}

	logger.Info("Run finished",
		zap.String("run_id", runID.String()),
		zap.Int("loci", len(loci)),
		zap.Strings("outputs", outputs),
		zap.Duration("elapsed", time.Since(started)),
	)
	return &Result{RunID: runID, Loci: loci, Outputs: outputs}, nil
}

func readGenomes(dir string) ([]*model.Record, error) {
	files, err := util.ListInputFiles(dir)
	if err != nil {
		return nil, &model.CollaboratorError{Tool: "genbank", Op: "list " + dir, Err: err}
	}

	var records []*model.Record
	bases := 0
	for _, file := range files {
		recs, err := genbank.ReadFile(file)
		if err != nil {
			return nil, &model.CollaboratorError{Tool: "genbank", Op: "read", Err: err}
		}
		for _, r := range recs {
			bases += r.Len()
		}
		records = append(records, recs...)
	}
	logger.Debug("Read genomes",
		zap.Int("files", len(files)),
		zap.Int("records", len(records)),
		zap.String("bases", humanize.Comma(int64(bases))),
	)
	return records, nil
}

// extract runs the extractor on every record with at most cfg.Threads in
// flight. Loci are concatenated in record order.
func (p *Pipeline) extract(ctx context.Context, extractor *model.LocusExtractor, queries []model.Sequence, records []*model.Record) ([]*model.Record, error) {
	results := make([][]*model.Record, len(records))

	var bar *progress
	if p.cfg.Progress && len(records) > 0 {
		bar = newProgress(p.ProgressOut, "searched records: ", len(records))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(p.cfg.Threads, 1))
	for i, record := range records {
		g.Go(func() error {
			start := time.Now()
			loci, err := extractor.Extract(gctx, queries, record)
			if err != nil {
				return err
			}
			results[i] = loci
			bar.increment(time.Since(start))
			logger.Debug("Extracted record",
				zap.String("record", record.Name),
				zap.Int("loci", len(loci)),
				zap.Duration("took", time.Since(start)),
			)
			return nil
		})
	}
	err := g.Wait()
	bar.wait(err != nil)
	if err != nil {
		return nil, err
	}

	var loci []*model.Record
	for _, r := range results {
		loci = append(loci, r...)
	}
	return loci, nil
}

func saveRun(ctx context.Context, path string, run db.Run, loci []*model.Record) error {
	catalog, err := db.Open(path)
	if err != nil {
		return err
	}
	defer catalog.Close()
	return catalog.SaveRun(ctx, run, loci)
}
