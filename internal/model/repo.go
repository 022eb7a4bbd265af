package model

// Repo is a named content source: either a local directory relative to the
// project root, or a pinned Git checkout placed under {root}/repo/{name}.
type Repo struct {
	Name   string `yaml:"-" json:"name"`
	URL    string `yaml:"url" json:"url" jsonschema:"description=Local directory (when local=true) or git clone URL"`
	Branch string `yaml:"branch,omitempty" json:"branch,omitempty" jsonschema:"description=Branch to fetch before checking out tag"`
	Tag    string `yaml:"tag,omitempty" json:"tag,omitempty" jsonschema:"description=Tag or ref checked out after fetch"`
	Local  bool   `yaml:"local,omitempty" json:"local,omitempty" jsonschema:"description=Treat url as a project-relative directory instead of a git remote"`
}

// InstallItem is a declared source/destination pair copied from a repo's
// stackd.yaml manifest into the project working directory by Repo.Install.
type InstallItem struct {
	Src  string `yaml:"src" json:"src"`
	Dest string `yaml:"dest" json:"dest"`
}

// RepoManifest is the shape of the optional stackd.yaml found at a repo's
// root, consulted by the Repo Manager's Install step.
type RepoManifest struct {
	Install []InstallItem `yaml:"install,omitempty" json:"install,omitempty"`
}
