package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/yumyai/locushunter/logger"
	"github.com/yumyai/locushunter/pkg/model"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		run_id       TEXT PRIMARY KEY,
		started_at   TEXT NOT NULL,
		query_faa    TEXT NOT NULL,
		genbank_dir  TEXT NOT NULL,
		evalue       REAL NOT NULL,
		extension    INTEGER NOT NULL,
		identity     REAL NOT NULL,
		dereplicated INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS loci (
		run_id    TEXT NOT NULL REFERENCES runs(run_id),
		position  INTEGER NOT NULL,
		name      TEXT NOT NULL,
		length    INTEGER NOT NULL,
		signature TEXT NOT NULL,
		PRIMARY KEY (run_id, position)
	)`,
	`CREATE TABLE IF NOT EXISTS genes (
		run_id         TEXT NOT NULL REFERENCES runs(run_id),
		locus_position INTEGER NOT NULL,
		gene_id        TEXT NOT NULL,
		family_id      INTEGER,
		start_pos      INTEGER NOT NULL,
		end_pos        INTEGER NOT NULL,
		strand         TEXT NOT NULL,
		color          TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS families (
		run_id    TEXT NOT NULL REFERENCES runs(run_id),
		family_id INTEGER NOT NULL,
		color     TEXT,
		members   INTEGER NOT NULL,
		PRIMARY KEY (run_id, family_id)
	)`,
}

// Run describes one pipeline invocation stored in the catalog.
type Run struct {
	ID           uuid.UUID
	StartedAt    time.Time
	QueryFAA     string
	GenbankDir   string
	EValue       float64
	Extension    int
	Identity     float64
	Dereplicated bool
}

// LocusRow is a stored locus in final order.
type LocusRow struct {
	Position  int
	Name      string
	Length    int
	Signature string
}

// Catalog keeps the results of every run in a SQLite database.
type Catalog struct {
	db *sql.DB
}

// Open opens (or creates) the catalog at path. ":memory:" gives a private
// in-memory database.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	// One writer; also keeps ":memory:" on a single connection.
	db.SetMaxOpenConns(1)

	catalog, err := NewCatalog(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return catalog, nil
}

// NewCatalog applies the schema to an already opened database.
func NewCatalog(db *sql.DB) (*Catalog, error) {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("create catalog schema: %w", err)
		}
	}
	return &Catalog{db: db}, nil
}

func (c *Catalog) Close() error {
	return c.db.Close()
}

// SaveRun stores run and its ordered loci in one transaction.
func (c *Catalog) SaveRun(ctx context.Context, run Run, loci []*model.Record) (err error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("SaveRun: begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, started_at, query_faa, genbank_dir, evalue, extension, identity, dereplicated)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(), run.StartedAt.UTC().Format(time.RFC3339), run.QueryFAA, run.GenbankDir,
		run.EValue, run.Extension, run.Identity, run.Dereplicated,
	); err != nil {
		return fmt.Errorf("SaveRun: insert run: %w", err)
	}

	type familyStat struct {
		color   string
		members int
	}
	families := make(map[model.FamilyID]*familyStat)
	var familyOrder []model.FamilyID

	for pos, locus := range loci {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO loci (run_id, position, name, length, signature) VALUES (?, ?, ?, ?, ?)`,
			run.ID.String(), pos, locus.Name, locus.Len(), model.Signature(locus),
		); err != nil {
			return fmt.Errorf("SaveRun: insert locus %s: %w", locus.Name, err)
		}

		for _, f := range locus.CDS() {
			var family sql.NullInt64
			if f.Annotation.Family.Tagged() {
				family = sql.NullInt64{Int64: int64(f.Annotation.Family), Valid: true}
				stat, ok := families[f.Annotation.Family]
				if !ok {
					stat = &familyStat{color: f.Annotation.Color}
					families[f.Annotation.Family] = stat
					familyOrder = append(familyOrder, f.Annotation.Family)
				}
				stat.members++
			}
			if _, err = tx.ExecContext(ctx,
				`INSERT INTO genes (run_id, locus_position, gene_id, family_id, start_pos, end_pos, strand, color)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				run.ID.String(), pos, f.Annotation.GeneID, family, f.Start, f.End, f.Strand.String(),
				sql.NullString{String: f.Annotation.Color, Valid: f.Annotation.Color != ""},
			); err != nil {
				return fmt.Errorf("SaveRun: insert gene %s: %w", f.Annotation.GeneID, err)
			}
		}
	}

	for _, id := range familyOrder {
		stat := families[id]
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO families (run_id, family_id, color, members) VALUES (?, ?, ?, ?)`,
			run.ID.String(), int(id), sql.NullString{String: stat.color, Valid: stat.color != ""}, stat.members,
		); err != nil {
			return fmt.Errorf("SaveRun: insert family %d: %w", id, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("SaveRun: commit: %w", err)
	}
	logger.Info("Saved run to catalog",
		zap.String("run_id", run.ID.String()),
		zap.Int("loci", len(loci)),
		zap.Int("families", len(familyOrder)),
	)
	return nil
}

// Runs lists the stored runs, oldest first.
func (c *Catalog) Runs(ctx context.Context) ([]Run, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT run_id, started_at, query_faa, genbank_dir, evalue, extension, identity, dereplicated
		 FROM runs ORDER BY started_at, run_id`)
	if err != nil {
		return nil, fmt.Errorf("Runs: query failed: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run       Run
			id        string
			startedAt string
		)
		if err := rows.Scan(&id, &startedAt, &run.QueryFAA, &run.GenbankDir,
			&run.EValue, &run.Extension, &run.Identity, &run.Dereplicated); err != nil {
			return nil, fmt.Errorf("Runs: scan failed: %w", err)
		}
		if run.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("Runs: bad run id %q: %w", id, err)
		}
		if run.StartedAt, err = time.Parse(time.RFC3339, startedAt); err != nil {
			return nil, fmt.Errorf("Runs: bad start time %q: %w", startedAt, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Loci returns the loci of a run in their final order.
func (c *Catalog) Loci(ctx context.Context, runID uuid.UUID) ([]LocusRow, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT position, name, length, signature FROM loci WHERE run_id = ? ORDER BY position`,
		runID.String())
	if err != nil {
		return nil, fmt.Errorf("Loci: query failed: %w", err)
	}
	defer rows.Close()

	var loci []LocusRow
	for rows.Next() {
		var l LocusRow
		if err := rows.Scan(&l.Position, &l.Name, &l.Length, &l.Signature); err != nil {
			return nil, fmt.Errorf("Loci: scan failed: %w", err)
		}
		loci = append(loci, l)
	}
	return loci, rows.Err()
}

// FamilySizes returns the number of stored genes per family of a run.
func (c *Catalog) FamilySizes(ctx context.Context, runID uuid.UUID) (map[model.FamilyID]int, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT family_id, members FROM families WHERE run_id = ?`, runID.String())
	if err != nil {
		return nil, fmt.Errorf("FamilySizes: query failed: %w", err)
	}
	defer rows.Close()

	sizes := make(map[model.FamilyID]int)
	for rows.Next() {
		var id, members int
		if err := rows.Scan(&id, &members); err != nil {
			return nil, fmt.Errorf("FamilySizes: scan failed: %w", err)
		}
		sizes[model.FamilyID(id)] = members
	}
	return sizes, rows.Err()
}
