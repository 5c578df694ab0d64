// Package cdhit clusters protein sequences with CD-HIT.
package cdhit

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

const DefaultBin = "cd-hit"

// MinIdentity is the lowest threshold cd-hit accepts for proteins.
const MinIdentity = 0.4

// Client implements model.ClusterClient.
type Client struct {
	Bin     string
	Threads int
	WorkDir string
}

// NewClient returns a client running cd-hit from PATH.
func NewClient(workDir string, threads int) *Client {
	return &Client{Bin: DefaultBin, Threads: threads, WorkDir: workDir}
}

// WordSize picks the -n value cd-hit requires for a protein identity threshold.
func WordSize(identity float64) (int, error) {
	switch {
	case identity > 1:
		return 0, &model.ConfigError{Field: "identity", Reason: "must not exceed 1"}
	case identity >= 0.7:
		return 5, nil
	case identity >= 0.6:
		return 4, nil
	case identity >= 0.5:
		return 3, nil
	case identity >= MinIdentity:
		return 2, nil
	}
	return 0, &model.ConfigError{Field: "identity", Reason: fmt.Sprintf("cd-hit needs at least %g", MinIdentity)}
}

func (c *Client) Cluster(ctx context.Context, sequences []model.Sequence, identity float64) (model.ClusterAssignment, error) {
	wordSize, err := WordSize(identity)
	if err != nil {
		return nil, err
	}
	if len(sequences) == 0 {
		return model.ClusterAssignment{}, nil
	}

	dir, err := os.MkdirTemp(c.WorkDir, "cdhit_")
	if err != nil {
		return nil, &model.CollaboratorError{Tool: "cd-hit", Op: "create work dir", Err: err}
	}

	aliased, names := fasta.Alias("g", sequences)
	input := filepath.Join(dir, "genes.faa")
	output := filepath.Join(dir, "representatives.faa")
	if err := fasta.WriteFile(input, aliased); err != nil {
		return nil, &model.CollaboratorError{Tool: "cd-hit", Op: "write input", Err: err}
	}

	bin := c.Bin
	if bin == "" {
		bin = DefaultBin
	}
	if err := util.RunCommand(ctx, bin,
		"-i", input,
		"-o", output,
		"-c", strconv.FormatFloat(identity, 'f', -1, 64),
		"-n", strconv.Itoa(wordSize),
		"-d", "0",
		"-M", "0",
		"-T", strconv.Itoa(max(c.Threads, 1)),
	); err != nil {
		return nil, &model.CollaboratorError{Tool: "cd-hit", Op: "cluster", Err: err}
	}

	fh, err := os.Open(output + ".clstr")
	if err != nil {
		return nil, &model.CollaboratorError{Tool: "cd-hit", Op: "read clusters", Err: err}
	}
	defer fh.Close()

	raw, err := ParseClusters(fh)
	if err != nil {
		return nil, &model.CollaboratorError{Tool: "cd-hit", Op: "parse clusters", Err: err}
	}

	assignment := make(model.ClusterAssignment, len(raw))
	for alias, cluster := range raw {
		id, ok := names[alias]
		if !ok {
			return nil, &model.CollaboratorError{Tool: "cd-hit", Op: "parse clusters", Err: fmt.Errorf("unknown sequence id %q", alias)}
		}
		assignment[id] = cluster
	}

	logger.Debug("cd-hit finished",
		zap.Int("sequences", len(sequences)),
		zap.Float64("identity", identity),
		zap.Int("assigned", len(assignment)),
	)
	return assignment, nil
}

// ParseClusters reads a .clstr report. Clusters are numbered from 1 in file order.
//
//	>Cluster 0
//	0	120aa, >g000001... *
//	1	118aa, >g000002... at 96.61%
func ParseClusters(r io.Reader) (map[string]int, error) {
	members := make(map[string]int)
	cluster := 0
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, ">Cluster"):
			cluster++
		default:
			if cluster == 0 {
				return nil, fmt.Errorf("line %d: member before first cluster header", lineNo)
			}
			start := strings.Index(line, ", >")
			if start < 0 {
				return nil, fmt.Errorf("line %d: malformed member %q", lineNo, line)
			}
			rest := line[start+3:]
			end := strings.Index(rest, "...")
			if end <= 0 {
				return nil, fmt.Errorf("line %d: malformed member %q", lineNo, line)
			}
			members[rest[:end]] = cluster
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return members, nil
}
