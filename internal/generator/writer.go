package generator

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// File permission constants.
const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// WriteFiles writes every generated file, creating directories as needed.
// Files whose content is unchanged are left untouched and not reported.
func WriteFiles(files []File) ([]string, error) {
	var written []string
	for _, file := range files {
		if err := os.MkdirAll(filepath.Dir(file.Path), dirPerm); err != nil {
			return written, errors.Wrapf(err, "creating output directory for %s", file.Path)
		}

		if current, err := os.ReadFile(file.Path); err == nil && bytes.Equal(current, file.Content) {
			zap.L().Debug("unchanged", zap.String("file", file.Path))
			continue
		}

		if err := os.WriteFile(file.Path, file.Content, filePerm); err != nil {
			return written, errors.Wrapf(err, "writing file %s", file.Path)
		}
		written = append(written, file.Path)
	}
	return written, nil
}
