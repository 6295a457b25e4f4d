package imagetool

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/distribution/reference"
	"github.com/google/go-containerregistry/pkg/name"
	"github.com/google/go-containerregistry/pkg/v1/empty"
	"github.com/google/go-containerregistry/pkg/v1/layout"
	"github.com/google/go-containerregistry/pkg/v1/tarball"
	"go.trai.ch/twoliter/internal/core/domain"
	"go.trai.ch/zerr"
)

// Runner executes an external command and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes the command. A non-zero exit carries the trimmed stderr as metadata.
func (ExecRunner) Run(ctx context.Context, bin string, args ...string) ([]byte, error) {
	//nolint:gosec // args are validated image references and tool managed paths
	cmd := exec.CommandContext(ctx, bin, args...)

	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			runErr := zerr.With(zerr.Wrap(exitErr, "command failed"), "command", bin+" "+strings.Join(args, " "))
			return nil, zerr.With(runErr, "stderr", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, zerr.With(zerr.Wrap(err, "command failed"), "command", bin)
	}
	return out, nil
}

// Docker implements ports.ImageTool by driving the docker CLI, so pulls go
// through the daemon and its configured credentials and mirrors.
type Docker struct {
	runner Runner
	bin    string
}

// NewDocker creates a Docker tool using the docker binary on PATH.
func NewDocker() *Docker {
	return NewDockerWithRunner(ExecRunner{})
}

// NewDockerWithRunner creates a Docker tool executing commands through runner.
func NewDockerWithRunner(runner Runner) *Docker {
	return &Docker{runner: runner, bin: "docker"}
}

// GetManifest returns the raw manifest list bytes as stored in the registry.
func (d *Docker) GetManifest(ctx context.Context, uri string) ([]byte, error) {
	if err := validateReference(uri); err != nil {
		return nil, err
	}

	out, err := d.runner.Run(ctx, d.bin, "buildx", "imagetools", "inspect", "--raw", uri)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrManifestFetchFailed.Error()), "uri", uri)
	}
	return out, nil
}

// GetConfig pulls the image into the daemon and reads its config labels.
func (d *Docker) GetConfig(ctx context.Context, uri string) (*domain.ContainerConfig, error) {
	if err := validateReference(uri); err != nil {
		return nil, err
	}

	if _, err := d.runner.Run(ctx, d.bin, "pull", "--quiet", uri); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigFetchFailed.Error()), "uri", uri)
	}

	out, err := d.runner.Run(ctx, d.bin, "image", "inspect", "--format", "{{json .Config.Labels}}", uri)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigFetchFailed.Error()), "uri", uri)
	}

	var labels map[string]string
	if err := json.Unmarshal(out, &labels); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "uri", uri)
	}
	return &domain.ContainerConfig{Labels: labels}, nil
}

// PullOCIImage pulls uri through the daemon, saves it to a tarball and
// rewrites the tarball as an OCI image layout at path.
func (d *Docker) PullOCIImage(ctx context.Context, path, uri string) error {
	if err := validateReference(uri); err != nil {
		return err
	}

	if _, err := d.runner.Run(ctx, d.bin, "pull", "--quiet", uri); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrPullFailed.Error()), "uri", uri)
	}

	tmp, err := os.MkdirTemp("", "twoliter-save-")
	if err != nil {
		return zerr.Wrap(err, domain.ErrPullFailed.Error())
	}
	defer func() {
		_ = os.RemoveAll(tmp)
	}()

	archive := filepath.Join(tmp, "image.tar")
	if _, err := d.runner.Run(ctx, d.bin, "save", "--output", archive, uri); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrPullFailed.Error()), "uri", uri)
	}

	return writeLayout(path, archive, uri)
}

func writeLayout(path, archive, uri string) error {
	var tag *name.Tag
	if ref, err := name.ParseReference(uri); err == nil {
		if t, ok := ref.(name.Tag); ok {
			tag = &t
		}
	}

	img, err := tarball.ImageFromPath(archive, tag)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrPullFailed.Error()), "archive", archive)
	}

	p, err := layout.Write(path, empty.Index)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrPullFailed.Error()), "path", path)
	}
	if err := p.AppendImage(img); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrPullFailed.Error()), "uri", uri)
	}
	return nil
}

// validateReference rejects anything the docker CLI would not read as a
// single image reference, including values that look like flags.
func validateReference(uri string) error {
	if strings.HasPrefix(uri, "-") {
		return zerr.With(domain.ErrInvalidReference, "uri", uri)
	}
	if _, err := reference.ParseNormalizedNamed(uri); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrInvalidReference.Error()), "uri", uri)
	}
	return nil
}
