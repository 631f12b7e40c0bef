// Package web assembles the fiber application: templates, static files, middleware and handlers.
package web

import (
	"embed"
	"io/fs"
	"net/http"
	"path"
)

const (
	templatesDir = "templates"
	staticDir    = "static"
)

//go:embed static/* templates/*
var assets embed.FS

// assetDir serves one top level directory of the embedded assets.
type assetDir struct {
	dir string
}

// Open opens name relative to the directory.
func (a assetDir) Open(name string) (fs.File, error) {
	return assets.Open(path.Join(a.dir, name))
}

// assetFS returns dir as an http.FileSystem.
func assetFS(dir string) http.FileSystem {
	return http.FS(assetDir{dir: dir})
}
