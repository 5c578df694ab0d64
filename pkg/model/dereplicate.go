package model

import (
	"strings"

	"github.com/yumyai/locushunter/logger"
	"go.uber.org/zap"
)

// Signature joins the ordered family ids of a locus into a comparable key.
// Untagged genes keep their position as "-".
func Signature(locus *Record) string {
	families := locus.Families()
	parts := make([]string, len(families))
	for i, f := range families {
		parts[i] = f.String()
	}
	return strings.Join(parts, ",")
}

// Dereplicate keeps the first locus of every signature group plus any other
// member whose name contains one of alwaysInclude. Survivors are emitted
// group by group in the order groups were first seen.
func Dereplicate(loci []*Record, alwaysInclude []string) []*Record {

	var keys []string
	groups := make(map[string][]*Record)
	for _, locus := range loci {
		sig := Signature(locus)
		if _, ok := groups[sig]; !ok {
			keys = append(keys, sig)
		}
		groups[sig] = append(groups[sig], locus)
	}

	var patterns []string
	for _, p := range alwaysInclude {
		if p = strings.TrimSpace(p); p != "" {
			patterns = append(patterns, p)
		}
	}

	out := make([]*Record, 0, len(keys))
	for _, sig := range keys {
		members := groups[sig]
		out = append(out, members[0])
		for _, locus := range members[1:] {
			if containsAny(locus.Name, patterns) {
				out = append(out, locus)
			}
		}
	}

	logger.Info("Dereplicated loci",
		zap.Int("before", len(loci)),
		zap.Int("after", len(out)),
		zap.Int("signatures", len(keys)))

	return out
}

func containsAny(s string, substrings []string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
