package webreport

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/clean-dependency-project/cyberscan/internal/ui"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

//go:embed assets/style.css
var assetsFS embed.FS

// RenderStats counts the files a render wrote or left untouched.
type RenderStats struct {
	Written   int
	Unchanged int
}

func (s *RenderStats) add(written bool) {
	if written {
		s.Written++
	} else {
		s.Unchanged++
	}
}

// RenderPages writes the report under outDir:
// index.html, runs/<run-id>.html and assets/style.css.
func RenderPages(model *SiteModel, outDir string, logger *slog.Logger) (RenderStats, error) {
	var stats RenderStats

	tmpl, err := loadTemplates()
	if err != nil {
		return stats, fmt.Errorf("failed to load templates: %w", err)
	}

	css, err := fs.ReadFile(assetsFS, "assets/style.css")
	if err != nil {
		return stats, fmt.Errorf("failed to read embedded style.css: %w", err)
	}
	written, err := writeFileIfChanged(filepath.Join(outDir, "assets", "style.css"), css, logger)
	if err != nil {
		return stats, fmt.Errorf("failed to write style.css: %w", err)
	}
	stats.add(written)

	written, err = renderPage(tmpl, "index.tmpl", model, filepath.Join(outDir, "index.html"), logger)
	if err != nil {
		return stats, err
	}
	stats.add(written)

	for _, host := range model.Hosts {
		for _, run := range host.Runs {
			data := struct {
				Host        HostModel
				Run         RunModel
				GeneratedAt time.Time
			}{host, run, model.GeneratedAt}

			path := filepath.Join(outDir, "runs", run.RunID+".html")
			written, err := renderPage(tmpl, "run.tmpl", data, path, logger)
			if err != nil {
				return stats, fmt.Errorf("failed to render run %s: %w", run.RunID, err)
			}
			stats.add(written)
		}
	}

	return stats, nil
}

func renderPage(tmpl *template.Template, name string, data any, path string, logger *slog.Logger) (bool, error) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return false, fmt.Errorf("failed to execute %s: %w", name, err)
	}
	written, err := writeFileIfChanged(path, buf.Bytes(), logger)
	if err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return written, nil
}

// loadTemplates parses every embedded template with the helper functions.
func loadTemplates() (*template.Template, error) {
	tmpl := template.New("").Funcs(template.FuncMap{
		"formatTime":     formatTime,
		"formatDuration": ui.HumanDuration,
		"title":          ui.Title,
		"inc":            func(i int) int { return i + 1 },
	})
	return tmpl.ParseFS(templateFS, "templates/*.tmpl")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04:05 UTC")
}
