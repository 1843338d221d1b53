// Package npm reads package manifests and drives the npm CLI for version
// bumps and publishing.
package npm

import (
	"encoding/json"
	"fmt"
	"path"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/input-output-hk/catalyst-forge-libs/release/errors"
)

// ManifestName is the npm package manifest file name.
const ManifestName = "package.json"

// Package holds the manifest fields a release needs.
type Package struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Private bool   `json:"private"`

	// Path is the manifest location the package was read from.
	Path string `json:"-"`
}

// Spec returns the name@version publish specifier.
func (p *Package) Spec() string {
	return p.Name + "@" + p.Version
}

// ReadPackage reads the package.json in dir. A manifest missing its name or
// version is rejected.
func ReadPackage(fs billy.Filesystem, dir string) (*Package, error) {
	p := path.Join(dir, ManifestName)

	data, err := util.ReadFile(fs, p)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeNotFound, fmt.Sprintf("failed to read %s: %v", p, err))
	}

	pkg := &Package{Path: p}
	if err := json.Unmarshal(data, pkg); err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidInput, fmt.Sprintf("failed to parse %s: %v", p, err))
	}

	if pkg.Name == "" || pkg.Version == "" {
		return nil, errors.WrapWithContext(nil, errors.CodeInvalidInput,
			fmt.Sprintf("Package %s 'version' or 'name' properties are missing", p),
			map[string]interface{}{"path": p})
	}

	return pkg, nil
}
