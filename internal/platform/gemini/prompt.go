package gemini

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"text/template"

	"github.com/phrazzld/leadwire-api/internal/domain"
	"github.com/phrazzld/leadwire-api/internal/generation"
)

//go:embed templates/analysis.tmpl
var templateFS embed.FS

const defaultTemplateName = "templates/analysis.tmpl"

// loadPromptTemplate parses the template at path, or the built-in template
// when path is empty.
func loadPromptTemplate(path string) (*template.Template, error) {
	var (
		content []byte
		err     error
	)
	if path == "" {
		content, err = templateFS.ReadFile(defaultTemplateName)
	} else {
		content, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read prompt template %q: %v",
			generation.ErrInvalidConfig, path, err)
	}

	tmpl, err := template.New("analysis").Option("missingkey=error").Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v",
			generation.ErrInvalidConfig, err)
	}
	return tmpl, nil
}

// renderPrompt executes tmpl for one article.
func renderPrompt(tmpl *template.Template, article *domain.Article) (string, error) {
	if article == nil || article.Content == "" {
		return "", ErrEmptyArticle
	}

	var buf bytes.Buffer
	data := promptData{
		Title:   article.Title,
		URL:     article.URL,
		Content: article.Content,
	}
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buf.String(), nil
}
