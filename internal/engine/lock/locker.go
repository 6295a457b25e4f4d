// Package lock resolves a project's kit graph into a pinned Lock and keeps
// the persisted Twoliter.lock consistent with the registries.
package lock

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.trai.ch/twoliter/internal/core/domain"
	"go.trai.ch/twoliter/internal/core/ports"
	"go.trai.ch/twoliter/internal/engine/image"
	"go.trai.ch/zerr"
)

// Locker resolves and persists locks for a project.
type Locker struct {
	tool        ports.ImageTool
	logger      ports.Logger
	concurrency int
}

// NewLocker creates a Locker that queries registries through tool.
func NewLocker(tool ports.ImageTool, logger ports.Logger) *Locker {
	return &Locker{
		tool:        tool,
		logger:      logger,
		concurrency: defaultConcurrency,
	}
}

// WithConcurrency bounds the number of kits extracted in parallel.
func (l *Locker) WithConcurrency(n int) *Locker {
	if n > 0 {
		l.concurrency = n
	}
	return l
}

// Resolve walks the project's kit dependencies breadth first, pinning every
// reachable kit and the single SDK they agree on.
func (l *Locker) Resolve(ctx context.Context, project *domain.Project) (*domain.Lock, error) {
	known := make(map[domain.ImageKey]domain.Version)
	locked := make([]domain.LockedImage, 0, len(project.Kits))

	var sdks []domain.Image
	addSDK := func(sdk domain.Image) {
		if !slices.Contains(sdks, sdk) {
			sdks = append(sdks, sdk)
		}
	}
	if project.SDK != nil {
		addSDK(*project.SDK)
	}

	remaining := slices.Clone(project.Kits)
	for len(remaining) > 0 {
		layer := remaining
		remaining = nil

		for _, kit := range layer {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			if version, ok := known[kit.Key()]; ok {
				if version != kit.Version {
					msg := fmt.Sprintf("kit %s from vendor %s is required at both %s and %s",
						kit.Name, kit.Vendor, version, kit.Version)
					err := zerr.Wrap(domain.ErrKitVersionConflict, msg)
					err = zerr.With(err, "kit", kit.Name)
					return nil, zerr.With(err, "vendor", kit.Vendor)
				}
				continue
			}
			known[kit.Key()] = kit.Version

			resolver, err := l.resolver(project, kit)
			if err != nil {
				return nil, zerr.With(err, "kit", kit.Name)
			}
			lockedKit, md, err := resolver.Resolve(ctx, l.tool)
			if err != nil {
				return nil, err
			}
			l.logger.Info(fmt.Sprintf("resolved kit %s as %s", kit, lockedKit.Digest))

			locked = append(locked, lockedKit)
			addSDK(md.SDK)
			remaining = append(remaining, md.Kits...)
		}
	}

	switch len(sdks) {
	case 0:
		return nil, domain.ErrNoSDK
	case 1:
	default:
		names := make([]string, 0, len(sdks))
		for _, sdk := range sdks {
			names = append(names, sdk.String())
		}
		return nil, zerr.With(domain.ErrMultipleSDKs, "sdks", strings.Join(names, ", "))
	}

	resolver, err := l.resolver(project, sdks[0])
	if err != nil {
		return nil, zerr.With(err, "sdk", sdks[0].Name)
	}
	lockedSDK, _, err := resolver.SkipMetadata().Resolve(ctx, l.tool)
	if err != nil {
		return nil, err
	}
	l.logger.Info(fmt.Sprintf("resolved sdk %s as %s", sdks[0], lockedSDK.Digest))

	return &domain.Lock{
		SchemaVersion: project.SchemaVersion,
		SDK:           lockedSDK,
		Kits:          locked,
	}, nil
}

func (l *Locker) resolver(project *domain.Project, img domain.Image) (*image.Resolver, error) {
	vendor, err := project.Vendor(img.Vendor)
	if err != nil {
		return nil, err
	}
	return image.NewResolver(img, vendor, project.Override(img.Vendor, img.Name)), nil
}

// Create resolves the project and writes the result to Twoliter.lock.
func (l *Locker) Create(ctx context.Context, project *domain.Project) (*domain.Lock, error) {
	resolved, err := l.Resolve(ctx, project)
	if err != nil {
		return nil, err
	}
	if err := WriteFile(project.LockPath(), resolved); err != nil {
		return nil, err
	}
	l.logger.Info(fmt.Sprintf("wrote %s with %d kits", domain.LockFileName, len(resolved.Kits)))
	return resolved, nil
}

// Load reads Twoliter.lock and checks it against a fresh resolution. Any
// difference, including a tag that now points at another manifest list,
// fails the load.
func (l *Locker) Load(ctx context.Context, project *domain.Project) (*domain.Lock, error) {
	persisted, err := ReadFile(project.LockPath())
	if err != nil {
		return nil, err
	}

	resolved, err := l.Resolve(ctx, project)
	if err != nil {
		return nil, err
	}

	if !persisted.Equal(resolved) {
		return nil, zerr.With(domain.ErrLockChanged, "path", project.LockPath())
	}
	return persisted, nil
}

// LoadSDK loads the lock and returns only its SDK.
func (l *Locker) LoadSDK(ctx context.Context, project *domain.Project) (*domain.LockedSDK, error) {
	loaded, err := l.Load(ctx, project)
	if err != nil {
		return nil, err
	}
	return &domain.LockedSDK{SDK: loaded.SDK}, nil
}
