package lock

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/secure-systems-lab/go-securesystemslib/cjson"
	"go.trai.ch/twoliter/internal/adapters/fs"
	"go.trai.ch/twoliter/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 4

// externalKitMetadata is the file the package build reads to find the resolved artifacts.
type externalKitMetadata struct {
	SDK  domain.LockedImage   `json:"sdk"`
	Kits []domain.LockedImage `json:"kit"`
}

// Fetch extracts every locked kit for arch into the project's external kits
// directory, then refreshes external-kit-metadata.json.
func (l *Locker) Fetch(ctx context.Context, project *domain.Project, locked *domain.Lock, arch string) error {
	root := project.ExternalKitsDir()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)

	for _, kit := range locked.Kits {
		g.Go(func() error {
			resolver, err := l.resolver(project, kit.Image())
			if err != nil {
				return zerr.With(err, "kit", kit.Name)
			}
			l.logger.Info(fmt.Sprintf("extracting kit %s for %s", kit.Image(), arch))
			if err := resolver.Extract(gctx, l.tool, root, arch, kit.Digest); err != nil {
				return zerr.With(err, "kit", kit.Name)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	content, err := MetadataFileContent(locked)
	if err != nil {
		return err
	}
	path := filepath.Join(root, domain.ExternalKitMetadataFileName)
	written, err := fs.SyncMetadataFile(path, content)
	if err != nil {
		return err
	}
	if written {
		l.logger.Info(fmt.Sprintf("updated %s", path))
	}
	return nil
}

// MetadataFileContent returns the canonical JSON describing the lock's SDK and kits.
func MetadataFileContent(locked *domain.Lock) ([]byte, error) {
	sorted := locked.Sorted()
	kits := sorted.Kits
	if kits == nil {
		kits = []domain.LockedImage{}
	}
	data, err := cjson.EncodeCanonical(externalKitMetadata{SDK: sorted.SDK, Kits: kits})
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrMetadataFileWriteFailed.Error())
	}
	return data, nil
}
