package assets

import (
	"embed"
	"text/template"
)

//go:embed templates/*
var templatesFS embed.FS

// Templates holds the files written into a project by `wargo init`.
var Templates = template.Must(template.ParseFS(templatesFS, "templates/*.tmpl"))

// ProjectTemplate parameterizes the scaffolding templates.
type ProjectTemplate struct {
	// CrateName is the package name with dashes replaced by underscores.
	CrateName        string
	FrameworkVersion string
	BindgenVersion   string
}

// ScaffoldFile maps a template onto the project relative path it is rendered to.
type ScaffoldFile struct {
	Template string
	Path     string
	// Append marks files that are extended instead of created.
	Append bool
}

// ScaffoldFiles lists the files written by `wargo init`, in write order.
var ScaffoldFiles = []ScaffoldFile{
	{Template: "lib.rs.tmpl", Path: "src/lib.rs"},
	{Template: "cargo_toml.append.tmpl", Path: "Cargo.toml", Append: true},
	{Template: "bootstrap.rs.tmpl", Path: "src/bootstrap.rs"},
	{Template: "simple_box.rs.tmpl", Path: "src/simple_box.rs"},
}
