package server

import (
	"embed"
	"fmt"
	"html/template"
	"path"
)

//go:embed templates/*.html
var templateFiles embed.FS

var templateFuncs = template.FuncMap{
	"minutes": formatMinutes,
}

// ParseTemplate parses a seller page from the embedded templates directory
func ParseTemplate(name string) (*template.Template, error) {
	return template.New(name).Funcs(templateFuncs).ParseFS(templateFiles, path.Join("templates", name))
}

func formatMinutes(n int64) string {
	if n == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", n)
}
