package feature

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/flosch/pongo2/v6"
	"github.com/iancoleman/strcase"
	"gopkg.in/yaml.v3"

	"github.com/NielsdaWheelz/tin/internal/core"
	"github.com/NielsdaWheelz/tin/internal/fs"
)

// Docker feature outputs.
const (
	DockerfileName    = "Dockerfile"
	ComposeFileName   = "docker-compose.yml"
	DockerignoreName  = ".dockerignore"
	composeMongoImage = "mongo:7"
)

// ComposeFile is the subset of the compose schema tin writes.
type ComposeFile struct {
	Services map[string]ComposeService `yaml:"services"`
	Networks map[string]ComposeNetwork `yaml:"networks,omitempty"`
	Volumes  map[string]ComposeVolume  `yaml:"volumes,omitempty"`
}

// ComposeService is one compose service.
type ComposeService struct {
	Build       string   `yaml:"build,omitempty"`
	Image       string   `yaml:"image,omitempty"`
	Ports       []string `yaml:"ports,omitempty"`
	Environment []string `yaml:"environment,omitempty"`
	DependsOn   []string `yaml:"depends_on,omitempty"`
	Volumes     []string `yaml:"volumes,omitempty"`
	Restart     string   `yaml:"restart,omitempty"`
	Networks    []string `yaml:"networks,omitempty"`
}

// ComposeNetwork is a compose network definition.
type ComposeNetwork struct {
	Driver string `yaml:"driver,omitempty"`
}

// ComposeVolume is a named compose volume.
type ComposeVolume struct {
	Driver string `yaml:"driver,omitempty"`
}

// NetworkName derives the compose network name from the project name.
// The result only holds [a-z0-9-], which Docker accepts for network names.
func NetworkName(projectName string) string {
	name := strings.Trim(core.SanitizeDBName(strcase.ToKebab(projectName)), "-")
	if name == "" {
		name = "app"
	}
	return name + "-network"
}

// BuildCompose returns the compose document for opts: an app service
// publishing the port and a mongo service on a shared network.
func BuildCompose(opts Options) ComposeFile {
	port := strconv.Itoa(opts.Port)
	network := NetworkName(opts.ProjectName)
	db := core.SanitizeDBName(opts.ProjectName)

	return ComposeFile{
		Services: map[string]ComposeService{
			"app": {
				Build: ".",
				Ports: []string{port + ":" + port},
				Environment: []string{
					"PORT=" + port,
					"NODE_ENV=development",
					fmt.Sprintf("MONGODB_URI=mongodb://mongo:27017/%s", db),
				},
				DependsOn: []string{"mongo"},
				Volumes:   []string{".:/app", "/app/node_modules"},
				Restart:   "unless-stopped",
				Networks:  []string{network},
			},
			"mongo": {
				Image:    composeMongoImage,
				Ports:    []string{"27017:27017"},
				Volumes:  []string{"mongo-data:/data/db"},
				Restart:  "unless-stopped",
				Networks: []string{network},
			},
		},
		Networks: map[string]ComposeNetwork{network: {Driver: "bridge"}},
		Volumes:  map[string]ComposeVolume{"mongo-data": {}},
	}
}

func applyDocker(_ context.Context, fsys fs.FS, dir string, opts Options) ([]string, error) {
	tctx := pongo2.Context{"project": opts.ProjectName, "port": opts.Port}

	dockerfile, err := render("Dockerfile"+opts.SourceExt()+".tpl", tctx)
	if err != nil {
		return nil, err
	}

	body, err := yaml.Marshal(BuildCompose(opts))
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", ComposeFileName, err)
	}
	compose := append([]byte("# Docker Compose configuration for "+opts.ProjectName+"\n"), body...)

	ignore, err := render("dockerignore.tpl", pongo2.Context{})
	if err != nil {
		return nil, err
	}

	files := []struct {
		name string
		data []byte
	}{
		{DockerfileName, dockerfile},
		{ComposeFileName, compose},
		{DockerignoreName, ignore},
	}
	written := make([]string, 0, len(files))
	for _, f := range files {
		if err := writeFile(fsys, dir, f.name, f.data, 0o644); err != nil {
			return written, err
		}
		written = append(written, f.name)
	}
	return written, nil
}
