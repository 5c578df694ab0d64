package model

import "context"

// SearchClient runs a protein homology search of queries against library.
// Implementations return every hit at or below the e-value threshold.
type SearchClient interface {
	Search(ctx context.Context, queries, library []Sequence, evalue float64) ([]HitRecord, error)
}

// ClusterClient groups sequences at an identity threshold. Cluster ids must be
// consistent within one call; their values mean nothing across calls.
type ClusterClient interface {
	Cluster(ctx context.Context, sequences []Sequence, identity float64) (ClusterAssignment, error)
}
