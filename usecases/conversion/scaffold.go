package conversion

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"convbackend/models"
)

// Files named "gitignore" are emitted as ".gitignore" so the templates
// don't act as ignore rules for this repository.
//
//go:embed templates
var templatesFS embed.FS

const defaultPackageJSON = `{
  "name": "converted-app",
  "version": "0.1.0",
  "private": true,
  "scripts": {
    "dev": "next dev",
    "build": "next build",
    "start": "next start",
    "lint": "next lint"
  },
  "dependencies": {
    "react": "^18",
    "react-dom": "^18",
    "next": "14.2.3"
  },
  "devDependencies": {
    "typescript": "^5",
    "@types/node": "^20",
    "@types/react": "^18",
    "@types/react-dom": "^18",
    "postcss": "^8",
    "tailwindcss": "^3.4.1",
    "eslint": "^8",
    "eslint-config-next": "14.2.3"
  }
}
`

// Merged into every generated Next.js package.json; existing versions are overwritten
var styleDevDependencies = []struct {
	Name    string
	Version string
}{
	{Name: "tailwindcss", Version: "^3.4.1"},
	{Name: "postcss", Version: "^8"},
	{Name: "autoprefixer", Version: "^10.4.19"},
}

// loadScaffold returns the fixed files of a profile in lexical path order
func loadScaffold(dir string) (models.OutputFileSet, error) {
	root := path.Join("templates", dir)
	var files models.OutputFileSet
	err := fs.WalkDir(templatesFS, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		content, err := templatesFS.ReadFile(p)
		if err != nil {
			return fmt.Errorf("failed to read template %s: %w", p, err)
		}
		rel := strings.TrimPrefix(p, root+"/")
		if path.Base(rel) == "gitignore" {
			rel = path.Join(path.Dir(rel), ".gitignore")
		}
		files = append(files, models.OutputFile{Path: rel, Content: string(content)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load %s scaffold: %w", dir, err)
	}
	return files, nil
}

// mergeStyleDevDependencies adds the Tailwind toolchain to a package.json document.
// The input must be a JSON object; the result is indented with two spaces.
func mergeStyleDevDependencies(packageJSON string) (string, error) {
	if !gjson.Valid(packageJSON) || !gjson.Parse(packageJSON).IsObject() {
		return "", fmt.Errorf("package.json is not a valid JSON object")
	}

	merged := packageJSON
	if devDeps := gjson.Get(merged, "devDependencies"); devDeps.Exists() && !devDeps.IsObject() {
		var err error
		if merged, err = sjson.Delete(merged, "devDependencies"); err != nil {
			return "", fmt.Errorf("failed to reset devDependencies: %w", err)
		}
	}
	for _, dep := range styleDevDependencies {
		var err error
		merged, err = sjson.Set(merged, "devDependencies."+escapePathComponent(dep.Name), dep.Version)
		if err != nil {
			return "", fmt.Errorf("failed to set devDependency %s: %w", dep.Name, err)
		}
	}

	return string(pretty.PrettyOptions([]byte(merged), &pretty.Options{Width: 1, Indent: "  "})), nil
}

// escapePathComponent escapes the gjson path metacharacters found in npm package names
func escapePathComponent(name string) string {
	replacer := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`)
	return replacer.Replace(name)
}
