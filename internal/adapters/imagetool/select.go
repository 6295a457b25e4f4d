package imagetool

import (
	"os"
	"os/exec"
	"strings"

	"go.trai.ch/twoliter/internal/core/domain"
	"go.trai.ch/twoliter/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	// EnvImageTool forces the image tool: "docker" or "registry".
	EnvImageTool = "TWOLITER_IMAGE_TOOL"

	// ToolDocker selects the docker CLI tool.
	ToolDocker = "docker"

	// ToolRegistry selects the direct registry tool.
	ToolRegistry = "registry"

	defaultDockerSocket = "/var/run/docker.sock"
)

// Environment is the subset of the process environment tool selection reads.
type Environment struct {
	Getenv   func(string) string
	LookPath func(string) (string, error)
	Stat     func(string) (os.FileInfo, error)
}

// OSEnvironment reads the real process environment.
func OSEnvironment() Environment {
	return Environment{Getenv: os.Getenv, LookPath: exec.LookPath, Stat: os.Stat}
}

// FromEnvironment picks the image tool for env.
func FromEnvironment(env Environment) (ports.ImageTool, error) {
	switch choice := strings.ToLower(strings.TrimSpace(env.Getenv(EnvImageTool))); choice {
	case ToolDocker:
		return NewDocker(), nil
	case ToolRegistry:
		return NewRegistry(), nil
	case "":
	default:
		return nil, zerr.With(domain.ErrUnknownImageTool, EnvImageTool, choice)
	}

	if dockerAvailable(env) {
		return NewDocker(), nil
	}
	return NewRegistry(), nil
}

func dockerAvailable(env Environment) bool {
	if _, err := env.LookPath(ToolDocker); err != nil {
		return false
	}
	if env.Getenv("DOCKER_HOST") != "" {
		return true
	}
	_, err := env.Stat(defaultDockerSocket)
	return err == nil
}
