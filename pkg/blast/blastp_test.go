package blast

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yumyai/locushunter/pkg/model"
)

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

const fakeBlastp = `echo "$@" > "$(dirname "$0")/blastp.args"
out=""
while [ $# -gt 0 ]; do
  if [ "$1" = "-out" ]; then out="$2"; fi
  shift
done
printf 'q000001\ts000002\t80.5\t100\t5\t1\t1\t100\t3\t102\t1e-30\t210.5\n' > "$out"
printf 'q000002\ts000001\t40\t50\t20\t2\t5\t54\t1\t50\t0.001\t45\n' >> "$out"
`

func TestSearchRestoresIDs(t *testing.T) {
	bin := t.TempDir()
	client := NewClient(t.TempDir(), 2)
	client.Blastp = writeScript(t, bin, "blastp", fakeBlastp)
	client.Makeblastdb = writeScript(t, bin, "makeblastdb", "exit 0\n")
	queries := []model.Sequence{{ID: "WP_1", Residues: "MKV"}, {ID: "WP_2", Residues: "MPP"}}
	library := []model.Sequence{{ID: "g.gbk___chr/1", Residues: "MKV"}, {ID: "g.gbk___chr/2", Residues: "MPP"}}

	hits, err := client.Search(context.Background(), queries, library, 1e-20)

	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, model.HitRecord{
		QueryID:         "WP_1",
		SubjectID:       "g.gbk___chr/2",
		PercentIdentity: 80.5,
		AlignmentLength: 100,
		Mismatches:      5,
		GapOpens:        1,
		QueryStart:      1,
		QueryEnd:        100,
		SubjectStart:    3,
		SubjectEnd:      102,
		EValue:          1e-30,
		BitScore:        210.5,
	}, hits[0])
	assert.Equal(t, "WP_2", hits[1].QueryID)
	assert.Equal(t, "g.gbk___chr/1", hits[1].SubjectID)

	args, err := os.ReadFile(filepath.Join(bin, "blastp.args"))
	require.NoError(t, err)
	assert.Contains(t, string(args), "-evalue 1e-20")
	assert.Contains(t, string(args), "-outfmt 6")
	assert.Contains(t, string(args), "-num_threads 2")
}

func TestSearchToolFailure(t *testing.T) {
	bin := t.TempDir()
	client := &Client{
		Blastp:      writeScript(t, bin, "blastp", fakeBlastp),
		Makeblastdb: writeScript(t, bin, "makeblastdb", "echo 'BLAST Database error' >&2\nexit 1\n"),
		WorkDir:     t.TempDir(),
	}

	_, err := client.Search(context.Background(),
		[]model.Sequence{{ID: "q", Residues: "M"}},
		[]model.Sequence{{ID: "s", Residues: "M"}}, 1)

	var collab *model.CollaboratorError
	require.True(t, errors.As(err, &collab))
	assert.Equal(t, "makeblastdb", collab.Tool)
	assert.Contains(t, err.Error(), "BLAST Database error")
}

func TestSearchEmptyInputs(t *testing.T) {
	client := &Client{Blastp: "/nonexistent/blastp", Makeblastdb: "/nonexistent/makeblastdb"}

	hits, err := client.Search(context.Background(), nil, []model.Sequence{{ID: "s", Residues: "M"}}, 1)

	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestParseTabular(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{name: "empty", input: "", want: 0},
		{name: "comments and blanks", input: "# BLASTP 2.15\n\nq\ts\t99\t10\t0\t0\t1\t10\t1\t10\t2e-5\t20\n", want: 1},
		{name: "short row", input: "q\ts\t99\t10\n", wantErr: true},
		{name: "bad number", input: "q\ts\t99\tten\t0\t0\t1\t10\t1\t10\t2e-5\t20\n", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits, err := ParseTabular(strings.NewReader(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, hits, tt.want)
		})
	}
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient("/scratch", 4)

	assert.Equal(t, &Client{
		Blastp:      DefaultBlastp,
		Makeblastdb: DefaultMakeblastdb,
		Threads:     4,
		WorkDir:     "/scratch",
	}, client)
}
