// Package app implements the application layer for twoliter.
package app

import (
	"context"
	"fmt"

	"go.trai.ch/twoliter/internal/core/domain"
	"go.trai.ch/twoliter/internal/core/ports"
	"go.trai.ch/twoliter/internal/engine/lock"
	"go.trai.ch/zerr"
)

// App orchestrates project loading, lock resolution, extraction and marker upkeep.
type App struct {
	loader  ports.ProjectLoader
	locker  *lock.Locker
	markers ports.MarkerStore
	logger  ports.Logger
}

// New creates a new App instance.
func New(loader ports.ProjectLoader, locker *lock.Locker, markers ports.MarkerStore, log ports.Logger) *App {
	return &App{
		loader:  loader,
		locker:  locker,
		markers: markers,
		logger:  log,
	}
}

// SetLogJSON switches the logger to JSON output when it supports it.
func (a *App) SetLogJSON(enable bool) {
	if j, ok := a.logger.(interface{ SetJSON(bool) }); ok {
		j.SetJSON(enable)
	}
}

// UpdateOptions configuration for the Update method.
type UpdateOptions struct {
	ProjectPath string
}

// Update resolves the project from scratch and rewrites Twoliter.lock.
func (a *App) Update(ctx context.Context, opts UpdateOptions) error {
	project, err := a.loadProject(opts.ProjectPath)
	if err != nil {
		return err
	}

	if err := a.markers.ClearTags(project.ExternalKitsDir()); err != nil {
		return err
	}

	if _, err := a.locker.Create(ctx, project); err != nil {
		return zerr.Wrap(err, "failed to update lock")
	}
	return nil
}

// FetchOptions configuration for the Fetch method.
type FetchOptions struct {
	ProjectPath string
	Arch        string
	// SDKOnly verifies only the SDK and certifies it alone, without extracting kits.
	SDKOnly bool
}

// Fetch verifies Twoliter.lock against the project and registry, extracts
// every locked kit for the architecture and marks the result as verified.
func (a *App) Fetch(ctx context.Context, opts FetchOptions) error {
	if opts.Arch == "" && !opts.SDKOnly {
		return domain.ErrArchRequired
	}

	project, err := a.loadProject(opts.ProjectPath)
	if err != nil {
		return err
	}

	dir := project.ExternalKitsDir()
	if err := a.markers.ClearTags(dir); err != nil {
		return err
	}

	var tags []domain.VerifyTag
	if opts.SDKOnly {
		sdk, err := a.locker.LoadSDK(ctx, project)
		if err != nil {
			return zerr.Wrap(err, "failed to verify lock")
		}
		tags = sdk.Tags()
	} else {
		locked, err := a.locker.Load(ctx, project)
		if err != nil {
			return zerr.Wrap(err, "failed to verify lock")
		}
		if err := a.locker.Fetch(ctx, project, locked, opts.Arch); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to fetch kits"), "arch", opts.Arch)
		}
		tags = locked.Tags()
	}

	if err := a.markers.WriteTags(dir, tags); err != nil {
		return err
	}
	a.logger.Info(fmt.Sprintf("verified %s", tagSummary(tags)))
	return nil
}

// VerifyOptions configuration for the Verify method.
type VerifyOptions struct {
	ProjectPath string
	// Markers additionally requires the marker files to match Twoliter.lock.
	Markers bool
}

// Verify re-resolves the project and checks that Twoliter.lock still matches.
// Markers that matched the lock before resolution are restored afterwards,
// covering no more than they covered before.
func (a *App) Verify(ctx context.Context, opts VerifyOptions) error {
	project, err := a.loadProject(opts.ProjectPath)
	if err != nil {
		return err
	}

	dir := project.ExternalKitsDir()
	certified, err := a.certifiedMarkers(project)
	if err != nil {
		return err
	}

	if err := a.markers.ClearTags(dir); err != nil {
		return err
	}
	if opts.Markers && certified == markersNone {
		return zerr.With(domain.ErrMarkersStale, "dir", dir)
	}

	locked, err := a.locker.Load(ctx, project)
	if err != nil {
		return zerr.Wrap(err, "failed to verify lock")
	}

	var tags []domain.VerifyTag
	switch certified {
	case markersFull:
		tags = locked.Tags()
	case markersSDK:
		sdk := domain.LockedSDK{SDK: locked.SDK}
		tags = sdk.Tags()
	}
	if tags != nil {
		if err := a.markers.WriteTags(dir, tags); err != nil {
			return err
		}
	}
	a.logger.Info(fmt.Sprintf("%s is up to date", domain.LockFileName))
	return nil
}

type markerSet int

const (
	markersNone markerSet = iota
	markersSDK
	markersFull
)

// certifiedMarkers reports which artifact set the markers on disk certify
// under the current lockfile. A missing lockfile means nothing is certified.
func (a *App) certifiedMarkers(project *domain.Project) (markerSet, error) {
	onDisk, err := lock.ReadFile(project.LockPath())
	if err != nil {
		return markersNone, nil //nolint:nilerr // an unreadable lock is reported by Load
	}

	dir := project.ExternalKitsDir()
	ok, err := a.markers.CheckTags(dir, onDisk.Tags())
	if err != nil {
		return markersNone, err
	}
	if ok {
		return markersFull, nil
	}

	sdk := domain.LockedSDK{SDK: onDisk.SDK}
	ok, err = a.markers.CheckTags(dir, sdk.Tags())
	if err != nil || !ok {
		return markersNone, err
	}
	return markersSDK, nil
}

func (a *App) loadProject(path string) (*domain.Project, error) {
	if path == "" {
		path = "."
	}
	project, err := a.loader.Load(path)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load project")
	}
	return project, nil
}

func tagSummary(tags []domain.VerifyTag) string {
	switch len(tags) {
	case 0:
		return "nothing"
	case 1:
		return string(tags[0].Kind)
	default:
		return fmt.Sprintf("%s and %s", tags[0].Kind, tags[1].Kind)
	}
}
