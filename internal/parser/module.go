package parser

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
)

// FindGoModDir walks up from dir until it finds go.mod.
func FindGoModDir(dir string) (string, error) {
	from, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		if _, err = os.Stat(filepath.Join(from, "go.mod")); err == nil {
			return from, nil
		}
		parent := filepath.Dir(from)
		if parent == from {
			return "", errors.Newf("no go.mod found above %s", dir)
		}
		from = parent
	}
}

// ModuleInfo summarizes the go.mod owning a directory.
type ModuleInfo struct {
	Dir      string
	Path     string
	Requires []module.Version
	Replaces []module.Version
}

// DependsOn reports whether the module requires or replaces modPath, or is
// modPath itself.
func (m *ModuleInfo) DependsOn(modPath string) bool {
	if m.Path == modPath {
		return true
	}
	for _, v := range m.Requires {
		if v.Path == modPath {
			return true
		}
	}
	for _, v := range m.Replaces {
		if v.Path == modPath {
			return true
		}
	}
	return false
}

// ReadModule parses the go.mod owning dir.
func ReadModule(dir string) (*ModuleInfo, error) {
	modDir, err := FindGoModDir(dir)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(modDir, "go.mod"))
	if err != nil {
		return nil, err
	}
	mf, err := modfile.Parse("go.mod", data, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", filepath.Join(modDir, "go.mod"))
	}

	info := &ModuleInfo{Dir: modDir}
	if mf.Module != nil {
		info.Path = mf.Module.Mod.Path
	}
	for _, r := range mf.Require {
		info.Requires = append(info.Requires, r.Mod)
	}
	for _, r := range mf.Replace {
		// r.Old names the module being replaced
		info.Replaces = append(info.Replaces, r.Old)
	}
	return info, nil
}
