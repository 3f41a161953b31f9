package check

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmmoran/recordgen/pkg/action/generate"
	"github.com/cmmoran/recordgen/pkg/lock"
	"github.com/cmmoran/recordgen/pkg/parser"
)

const catalog = `package: catalog
declarations:
  - name: Product
    derive: [codable, keys]
    members:
      - name: ID
        type: int
      - name: Title
        type: string
`

func setup(t *testing.T) (*parser.Options, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(catalog), 0o644))

	opts, err := parser.Build(parser.WithInDir(""), parser.WithManifests(path))
	require.NoError(t, err)

	_, err = generate.Generate(context.Background(), opts, "v1.2.0")
	require.NoError(t, err)
	return opts, filepath.Join(dir, "catalog_gen.go")
}

func TestCheck_Clean(t *testing.T) {
	opts, _ := setup(t)

	report, err := Check(context.Background(), opts, "v1.3.0")
	require.NoError(t, err)
	assert.True(t, report.Clean())
	assert.NoError(t, report.Err())
}

func TestCheck_Drift(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(t *testing.T, opts *parser.Options, out string)
		version string
		want    []string
	}{
		{
			name: "hand edited output",
			mutate: func(t *testing.T, _ *parser.Options, out string) {
				f, err := os.OpenFile(out, os.O_APPEND|os.O_WRONLY, 0o644)
				require.NoError(t, err)
				_, err = f.WriteString("\n// edited\n")
				require.NoError(t, err)
				require.NoError(t, f.Close())
			},
			want: []string{ReasonModified},
		},
		{
			name: "deleted output",
			mutate: func(t *testing.T, _ *parser.Options, out string) {
				require.NoError(t, os.Remove(out))
			},
			want: []string{ReasonMissing},
		},
		{
			name: "lock missing entry and stale entry",
			mutate: func(t *testing.T, opts *parser.Options, _ string) {
				path := generate.LockPath(opts)
				l, err := lock.Load(path)
				require.NoError(t, err)
				l.Entries = []lock.Entry{{File: "old_gen.go"}}
				require.NoError(t, l.Save(path))
			},
			want: []string{ReasonLock, ReasonStale},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, out := setup(t)
			tt.mutate(t, opts, out)

			report, err := Check(context.Background(), opts, "v1.2.0")
			require.NoError(t, err)
			assert.False(t, report.Clean())
			assert.Error(t, report.Err())

			var reasons []string
			for _, d := range report.Drift {
				reasons = append(reasons, d.Reason)
			}
			assert.Equal(t, tt.want, reasons)
		})
	}
}

func TestCheck_ModifiedCarriesDiff(t *testing.T) {
	opts, out := setup(t)
	require.NoError(t, os.WriteFile(out, []byte("package catalog\n"), 0o644))

	report, err := Check(context.Background(), opts, "v1.2.0")
	require.NoError(t, err)
	require.Len(t, report.Drift, 1)
	assert.Equal(t, "catalog_gen.go", report.Drift[0].File)
	assert.Contains(t, report.Drift[0].Diff, "Product")
}

func TestCheck_IncompatibleGenerator(t *testing.T) {
	opts, _ := setup(t)

	report, err := Check(context.Background(), opts, "v2.0.0")
	require.NoError(t, err)
	assert.Empty(t, report.Drift)
	assert.False(t, report.Clean())
	assert.ErrorContains(t, report.Err(), "lock was written by generator 1.2.0")
}
