package main

import (
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/eringen/blogs/scaffold"
)

// scaffoldData holds the template variables passed to every scaffold template.
type scaffoldData struct {
	ProjectName   string
	ModuleName    string
	SiteName      string
	SessionSecret string
}

func runNew(name string) error {
	dirName := name
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		dirName = name[idx+1:]
	}
	if dirName == "" {
		return fmt.Errorf("invalid project name %q", name)
	}
	if _, err := os.Stat(dirName); err == nil {
		return fmt.Errorf("directory %q already exists", dirName)
	}

	secret, err := gonanoid.New(48)
	if err != nil {
		return fmt.Errorf("generate session secret: %w", err)
	}
	data := scaffoldData{
		ProjectName:   dirName,
		ModuleName:    name,
		SiteName:      toTitle(dirName),
		SessionSecret: secret,
	}

	fmt.Printf("Creating new blogs site: %s\n\n", dirName)

	if err := writeScaffold(dirName, data); err != nil {
		return err
	}

	fmt.Println("\nResolving Go dependencies...")
	tidy := exec.Command("go", "mod", "tidy")
	tidy.Dir = dirName
	tidy.Stdout = os.Stdout
	tidy.Stderr = os.Stderr
	if err := tidy.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "\nWarning: go mod tidy failed: %v\n", err)
		fmt.Fprintf(os.Stderr, "Run 'cd %s && go mod tidy' manually after fixing.\n", dirName)
	}

	fmt.Println()
	fmt.Println("Done! Next steps:")
	fmt.Println()
	fmt.Printf("  cd %s\n", dirName)
	fmt.Println("  go run .")
	fmt.Println()
	fmt.Println("Edit blogs.toml to name your site, then sign in at /admin/ to add pages.")
	fmt.Println("Set BLOGS_ADMIN_PASSWORD in .env before deploying.")
	return nil
}

// writeScaffold renders every embedded template into dir, dropping the
// .tmpl suffix and restoring the dot of dotenv and gitignore.
func writeScaffold(dir string, data scaffoldData) error {
	const root = "templates"
	return fs.WalkDir(scaffold.Templates, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		outPath := strings.TrimSuffix(filepath.Join(dir, relPath), ".tmpl")
		switch filepath.Base(outPath) {
		case "dotenv":
			outPath = filepath.Join(filepath.Dir(outPath), ".env.example")
		case "gitignore":
			outPath = filepath.Join(filepath.Dir(outPath), ".gitignore")
		}

		if d.IsDir() {
			return os.MkdirAll(outPath, 0o755)
		}

		content, err := scaffold.Templates.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		tmpl, err := template.New(filepath.Base(path)).Parse(string(content))
		if err != nil {
			return fmt.Errorf("parse template %s: %w", path, err)
		}
		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return err
		}

		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", outPath, err)
		}
		defer f.Close()

		if err := tmpl.Execute(f, data); err != nil {
			return fmt.Errorf("execute template %s: %w", path, err)
		}
		fmt.Printf("  created %s\n", outPath)
		return nil
	})
}

// toTitle converts a hyphenated or lowercase name to a title-case string.
// e.g. "my-blog" -> "My Blog", "myblog" -> "Myblog"
func toTitle(s string) string {
	parts := strings.Split(s, "-")
	for i, p := range parts {
		if len(p) > 0 {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}
