package feature

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"

	"github.com/NielsdaWheelz/tin/internal/errors"
	"github.com/NielsdaWheelz/tin/internal/fs"
	"github.com/NielsdaWheelz/tin/internal/tmpl"
)

func readManifest(t *testing.T, dir string) *orderedmap.OrderedMap[string, json.RawMessage] {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "package.json"))
	require.NoError(t, err)
	doc := orderedmap.New[string, json.RawMessage]()
	require.NoError(t, json.Unmarshal(data, doc))
	return doc
}

func manifestKeys(t *testing.T, dir string) []string {
	t.Helper()
	doc := readManifest(t, dir)
	var keys []string
	for pair := doc.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

func manifestSection(t *testing.T, dir, key string) map[string]string {
	t.Helper()
	out := map[string]string{}
	if raw, ok := readManifest(t, dir).Get(key); ok {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return out
}

const fixtureManifest = `{
  "name": "my-api",
  "version": "1.0.0",
  "type": "module",
  "scripts": {
    "dev": "nodemon src/index.ts"
  },
  "dependencies": {
    "express": "^4.18.2"
  },
  "devDependencies": {
    "typescript": "^5.4.0"
  }
}
`

// newProject writes a minimal copied template into a temp dir.
func newProject(t *testing.T, opts Options) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"package.json":  fixtureManifest,
		EntryPath(opts): entryWithCORS,
	}
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func snapshot(t *testing.T, dir string) map[string]string {
	t.Helper()
	out := map[string]string{}
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, _ := filepath.Rel(dir, path)
		data, err := os.ReadFile(path)
		out[filepath.ToSlash(rel)] = string(data)
		return err
	})
	require.NoError(t, err)
	return out
}

func TestCompose_DockerDisabledWritesNoDockerFiles(t *testing.T) {
	opts := Options{ProjectName: "my-api", Language: tmpl.LangTS, Port: 3000}
	dir := newProject(t, opts)

	files, err := Compose(context.Background(), fs.NewRealFS(), dir, opts, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{GitignoreName}, files)

	for _, name := range []string{DockerfileName, ComposeFileName, DockerignoreName} {
		assert.NoFileExists(t, filepath.Join(dir, name))
	}
}

func TestCompose_FeaturesOffOnlyGitignoreChanges(t *testing.T) {
	opts := Options{ProjectName: "my-api", Language: tmpl.LangJS, Port: 3000}
	dir := newProject(t, opts)
	before := snapshot(t, dir)

	_, err := Compose(context.Background(), fs.NewRealFS(), dir, opts, nil)
	require.NoError(t, err)

	after := snapshot(t, dir)
	delete(after, GitignoreName)
	assert.Equal(t, before, after)
}

func TestDocker_ThreeFilesWithPort(t *testing.T) {
	opts := Options{ProjectName: "My Shop", Language: tmpl.LangTS, Port: 8080, Docker: true}
	dir := newProject(t, opts)
	before := snapshot(t, dir)

	files, err := applyDocker(context.Background(), fs.NewRealFS(), dir, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{DockerfileName, ComposeFileName, DockerignoreName}, files)

	after := snapshot(t, dir)
	var added []string
	for k := range after {
		if _, ok := before[k]; !ok {
			added = append(added, k)
		}
	}
	sort.Strings(added)
	assert.Equal(t, []string{DockerignoreName, DockerfileName, ComposeFileName}, added)

	assert.Contains(t, after[DockerfileName], "EXPOSE 8080\n")
	assert.Contains(t, after[DockerfileName], `CMD ["node", "dist/index.js"]`)

	var compose ComposeFile
	require.NoError(t, yaml.Unmarshal([]byte(after[ComposeFileName]), &compose))
	app, ok := compose.Services["app"]
	require.True(t, ok)
	assert.Equal(t, []string{"8080:8080"}, app.Ports)
	assert.Contains(t, app.Environment, "MONGODB_URI=mongodb://mongo:27017/my-shop")
	assert.Contains(t, compose.Services, "mongo")
	assert.Contains(t, compose.Networks, "my-shop-network")
	assert.Equal(t, []string{"my-shop-network"}, compose.Services["mongo"].Networks)
}

func TestDocker_JavaScriptDockerfile(t *testing.T) {
	opts := Options{ProjectName: "api", Language: tmpl.LangJS, Port: 3000, Docker: true}
	dir := newProject(t, opts)

	_, err := applyDocker(context.Background(), fs.NewRealFS(), dir, opts)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, DockerfileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), `CMD ["node", "src/index.js"]`)
	assert.Contains(t, string(data), "EXPOSE 3000")
}

func TestAPIDocs_TypeScript(t *testing.T) {
	opts := Options{ProjectName: "my-api", Language: tmpl.LangTS, Port: 4000, APIDocs: true}
	dir := newProject(t, opts)
	fsys := fs.NewRealFS()

	files, err := Compose(context.Background(), fsys, dir, opts, nil)
	require.NoError(t, err)
	assert.Contains(t, files, OpenAPIPath)
	assert.Contains(t, files, SwaggerCSSPath)
	assert.Contains(t, files, "src/config/swagger.ts")

	deps := manifestSection(t, dir, "dependencies")
	assert.Equal(t, "^5.0.0", deps["swagger-ui-express"])
	assert.Equal(t, "^4.1.0", deps["js-yaml"])
	assert.Equal(t, "^4.18.2", deps["express"])
	dev := manifestSection(t, dir, "devDependencies")
	assert.Contains(t, dev, "@types/swagger-ui-express")
	assert.Contains(t, dev, "@types/js-yaml")
	assert.Equal(t, []string{"name", "version", "type", "scripts", "dependencies", "devDependencies"}, manifestKeys(t, dir))

	openapi, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(OpenAPIPath)))
	require.NoError(t, err)
	assert.Contains(t, string(openapi), "http://localhost:4000")
	assert.Contains(t, string(openapi), "BearerAuth")

	css, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(SwaggerCSSPath)))
	require.NoError(t, err)
	assert.Contains(t, string(css), "#1a1a1a", "dark variant applied")

	entry, err := os.ReadFile(filepath.Join(dir, "src", "index.ts"))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(entry), DocsRegistration))
}

func TestAPIDocs_JavaScriptSkipsTypes(t *testing.T) {
	opts := Options{ProjectName: "js-api", Language: tmpl.LangJS, Port: 3000, APIDocs: true, CookieAuth: true}
	dir := newProject(t, opts)
	fsys := fs.NewRealFS()

	_, err := Compose(context.Background(), fsys, dir, opts, nil)
	require.NoError(t, err)

	dev := manifestSection(t, dir, "devDependencies")
	assert.NotContains(t, dev, "@types/js-yaml")
	assert.FileExists(t, filepath.Join(dir, "src", "config", "swagger.js"))

	openapi, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(OpenAPIPath)))
	require.NoError(t, err)
	assert.Contains(t, string(openapi), "CookieAuth")
	assert.Contains(t, string(openapi), "/auth/logout")
}

func TestAPIDocs_ReapplyIsNoOp(t *testing.T) {
	opts := Options{ProjectName: "my-api", Language: tmpl.LangTS, Port: 3000, APIDocs: true}
	dir := newProject(t, opts)
	fsys := fs.NewRealFS()

	_, err := Compose(context.Background(), fsys, dir, opts, nil)
	require.NoError(t, err)
	first := snapshot(t, dir)

	_, err = Compose(context.Background(), fsys, dir, opts, nil)
	require.NoError(t, err)
	assert.Equal(t, first, snapshot(t, dir))
}

func TestAPIDocs_MissingEntryIsFeatureError(t *testing.T) {
	opts := Options{ProjectName: "my-api", Language: tmpl.LangTS, Port: 3000, APIDocs: true}
	dir := newProject(t, opts)
	require.NoError(t, os.Remove(filepath.Join(dir, "src", "index.ts")))

	_, err := Compose(context.Background(), fs.NewRealFS(), dir, opts, nil)
	require.Error(t, err)
	assert.Equal(t, errors.EFeature, errors.GetCode(err))
	te, _ := errors.AsTinError(err)
	assert.Equal(t, "apidocs", te.Details["feature"])
}

func TestRenderOpenAPI_ValidForBothAuthModes(t *testing.T) {
	for _, cookie := range []bool{false, true} {
		_, err := RenderOpenAPI(context.Background(), Options{ProjectName: `quote "me" & co`, Port: 3000, CookieAuth: cookie})
		assert.NoError(t, err, "cookie=%v", cookie)
	}
}

func TestSwaggerTheme(t *testing.T) {
	require.NoError(t, SwaggerTheme.Validate())

	tokens := SwaggerTheme.TokensForVariant(SwaggerVariant)
	assert.Equal(t, "#1a1a1a", tokens["background"])
	assert.Equal(t, "#49cc90", tokens["post"])
	assert.NotEqual(t, "#1a1a1a", SwaggerTheme.Tokens["background"], "base tokens must not be mutated")

	css, err := renderSwaggerCSS()
	require.NoError(t, err)
	assert.Contains(t, string(css), "#61affe")
}

func TestNetworkName(t *testing.T) {
	valid := regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)
	tests := []struct {
		project string
		want    string
	}{
		{"my-shop", "my-shop-network"},
		{"MyShop", "my-shop-network"},
		{"My Shop_API!", "my-shop-api-network"},
		{"café", "caf-network"},
		{"api(v2)", "api-v-2-network"},
		{"!!!", "app-network"},
	}
	for _, tt := range tests {
		t.Run(tt.project, func(t *testing.T) {
			got := NetworkName(tt.project)
			assert.Equal(t, tt.want, got)
			assert.Regexp(t, valid, got)
		})
	}
}

func TestDocker_ComposeNetworkForPunctuatedName(t *testing.T) {
	opts := Options{ProjectName: "My Shop_API!", Language: tmpl.LangTS, Port: 3000, Docker: true}
	dir := newProject(t, opts)

	_, err := applyDocker(context.Background(), fs.NewRealFS(), dir, opts)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, ComposeFileName))
	require.NoError(t, err)
	var compose ComposeFile
	require.NoError(t, yaml.Unmarshal(data, &compose))
	assert.Contains(t, compose.Networks, "my-shop-api-network")
	assert.Equal(t, []string{"my-shop-api-network"}, compose.Services["app"].Networks)
}
