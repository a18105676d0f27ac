package web

import "embed"

// TemplatesFS holds the page templates.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds the stylesheet and chart script served under /static/.
//
//go:embed static/*
var StaticFS embed.FS
