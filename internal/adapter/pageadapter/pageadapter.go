package pageadapter

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"go.abhg.dev/goldmark/frontmatter"
)

const pageShell = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{ .Title }}</title>
<link rel="stylesheet" href="../brand/theme.css">
</head>
<body>
<article>
{{ .Body }}
</article>
</body>
</html>
`

// PageMeta is the frontmatter carried by page bodies.
type PageMeta struct {
	Title     string `yaml:"title"`
	FrontPage bool   `yaml:"front_page"`
}

// PageAdapter renders Markdown page bodies into self-contained HTML documents
// for offline viewing.
type PageAdapter struct {
	md   goldmark.Markdown
	tmpl *template.Template
}

func New() (*PageAdapter, error) {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Table,
			extension.Linkify,
			extension.TaskList,
			&frontmatter.Extender{},
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)

	tmpl, err := template.New("page").Parse(pageShell)
	if err != nil {
		return nil, fmt.Errorf("cannot parse page template: %w", err)
	}

	return &PageAdapter{md: md, tmpl: tmpl}, nil
}

// Render converts a Markdown body into an offline HTML document. A title in
// the frontmatter wins over the fallback title passed by the caller.
func (a *PageAdapter) Render(body, fallbackTitle string) (string, *PageMeta, error) {
	var buf bytes.Buffer
	ctx := parser.NewContext()

	if err := a.md.Convert([]byte(body), &buf, parser.WithContext(ctx)); err != nil {
		return "", nil, fmt.Errorf("cannot convert page body: %w", err)
	}

	meta := &PageMeta{}
	if fm := frontmatter.Get(ctx); fm != nil {
		if err := fm.Decode(meta); err != nil {
			return "", nil, fmt.Errorf("cannot decode page frontmatter: %w", err)
		}
	}

	if meta.Title == "" {
		meta.Title = fallbackTitle
	}

	var out bytes.Buffer
	data := struct {
		Title string
		Body  template.HTML
	}{
		Title: meta.Title,
		Body:  template.HTML(buf.String()),
	}
	if err := a.tmpl.Execute(&out, data); err != nil {
		return "", nil, fmt.Errorf("cannot execute page template: %w", err)
	}

	return out.String(), meta, nil
}
