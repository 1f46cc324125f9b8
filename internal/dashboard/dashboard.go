package dashboard

import (
	"embed"
	"html/template"
)

//go:embed assets/*
var Assets embed.FS

//go:embed templates/*.html
var Templates embed.FS

// Pages holds every dashboard template, keyed by file name.
var Pages = template.Must(template.ParseFS(Templates, "templates/*.html"))
