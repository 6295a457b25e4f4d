// Package config provides the project loader for twoliter.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/pelletier/go-toml/v2"
	"go.trai.ch/twoliter/internal/core/domain"
	"go.trai.ch/twoliter/internal/core/ports"
	"go.trai.ch/zerr"
)

// SupportedSchemaVersion is the only Twoliter.toml schema this loader accepts.
const SupportedSchemaVersion = 1

// Loader implements ports.ProjectLoader using TOML files.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load finds Twoliter.toml at or above path and reads it together with the
// Twoliter.override file next to it, if one exists.
func (l *Loader) Load(path string) (*domain.Project, error) {
	projectPath, err := findProject(path)
	if err != nil {
		return nil, err
	}

	var file ProjectFile
	if err := readAndUnmarshalTOML(projectPath, &file, domain.ErrProjectParseFailed); err != nil {
		return nil, err
	}

	project, err := buildProject(filepath.Dir(projectPath), &file)
	if err != nil {
		return nil, zerr.With(err, "path", projectPath)
	}

	overrides, err := l.loadOverrides(project)
	if err != nil {
		return nil, err
	}
	project.Overrides = overrides

	return project, nil
}

// findProject walks up from start until a directory containing Twoliter.toml is found.
// start may also name the project file itself.
func findProject(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrProjectNotFound.Error()), "path", start)
	}

	if info, err := os.Stat(abs); err == nil && !info.IsDir() {
		return abs, nil
	}

	currentDir := abs
	for {
		candidate := filepath.Join(currentDir, domain.ProjectFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root
			break
		}
		currentDir = parentDir
	}

	return "", zerr.With(domain.ErrProjectNotFound, "path", abs)
}

func buildProject(dir string, file *ProjectFile) (*domain.Project, error) {
	if file.SchemaVersion != SupportedSchemaVersion {
		err := zerr.With(domain.ErrProjectParseFailed, "schema_version", file.SchemaVersion)
		return nil, zerr.With(err, "supported", SupportedSchemaVersion)
	}

	project := &domain.Project{
		Dir:            dir,
		SchemaVersion:  file.SchemaVersion,
		ReleaseVersion: file.ReleaseVersion,
		Vendors:        make(map[string]domain.Vendor, len(file.Vendors)),
		Kits:           make([]domain.Image, 0, len(file.Kits)),
	}
	for name, v := range file.Vendors {
		if v.Registry == "" {
			return nil, zerr.With(domain.ErrProjectParseFailed, "vendor_without_registry", name)
		}
		project.Vendors[name] = domain.Vendor{Registry: v.Registry}
	}

	if file.SDK != nil {
		sdk, err := declaredImage(project, *file.SDK)
		if err != nil {
			return nil, zerr.With(err, "field", "sdk")
		}
		project.SDK = &sdk
	}

	for _, dto := range file.Kits {
		kit, err := declaredImage(project, dto)
		if err != nil {
			return nil, zerr.With(err, "field", "kit")
		}
		project.Kits = append(project.Kits, kit)
	}

	return project, nil
}

func declaredImage(project *domain.Project, dto ImageDTO) (domain.Image, error) {
	img, err := domain.NewImage(dto.Name, dto.Version, dto.Vendor)
	if err != nil {
		return domain.Image{}, err
	}
	if _, err := project.Vendor(img.Vendor); err != nil {
		return domain.Image{}, zerr.With(err, "image", img.Name)
	}
	return img, nil
}

func (l *Loader) loadOverrides(project *domain.Project) (map[string]map[string]domain.Override, error) {
	path := filepath.Join(project.Dir, domain.OverrideFileName)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	var file OverrideFile
	if err := readAndUnmarshalTOML(path, &file, domain.ErrOverrideParseFailed); err != nil {
		return nil, err
	}

	vendors := make([]string, 0, len(file))
	for vendor := range file {
		vendors = append(vendors, vendor)
	}
	slices.Sort(vendors)

	overrides := make(map[string]map[string]domain.Override, len(file))
	for _, vendor := range vendors {
		if _, ok := project.Vendors[vendor]; !ok {
			l.Logger.Warn(fmt.Sprintf("%s overrides vendor %q, which %s does not declare",
				domain.OverrideFileName, vendor, domain.ProjectFileName))
		}
		byName := make(map[string]domain.Override, len(file[vendor]))
		for name, o := range file[vendor] {
			byName[name] = domain.Override{Name: o.Name, Registry: o.Registry}
		}
		overrides[vendor] = byName
	}
	return overrides, nil
}

func readAndUnmarshalTOML[T any](path string, target *T, parseErr error) error {
	// #nosec G304 -- path is discovered by the loader
	data, err := os.ReadFile(path)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrProjectReadFailed.Error()), "path", path)
	}

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return zerr.With(zerr.Wrap(err, parseErr.Error()), "path", path)
	}
	return nil
}
