package handler

import "errors"

const (
	// BaseLayout is the default path for layout templates.
	BaseLayout = "layouts/base"

	// RootPath is the root path of a route group.
	RootPath = "/"

	// HomePath is where signed in users land.
	HomePath = "/dashboard"
)

// ErrNilDeps is returned by Init when app or a required dependency is nil.
var ErrNilDeps = errors.New("app, cfg, db, auth or settings is nil")
