package web

import "embed"

// StaticFS embeds static assets for the API landing page.
//
//go:embed static/*
var StaticFS embed.FS
