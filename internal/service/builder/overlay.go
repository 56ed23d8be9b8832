package builder

import "sort"

// Layer names, in precedence order.
const (
	// LayerLock is the base layer: the lockfile's resolver defaults.
	LayerLock = "lock"
	// LayerBuildSystem is the build-system override layer from the manifest.
	LayerBuildSystem = "build-system"
	// LayerWorkspace is the workspace override layer, the last writer.
	LayerWorkspace = "workspace"
)

// Layer is one named set of package recipes in the override stack.
type Layer struct {
	// Name identifies the layer in provenance records.
	Name string
	// Packages maps dependency names to recipes supplied by this layer.
	Packages map[string]Recipe
}

// ResolvedPackage is a recipe together with the layer that supplied it.
type ResolvedPackage struct {
	// Recipe is the winning recipe for the package.
	Recipe Recipe `yaml:"recipe"`
	// Origin names the layer whose recipe won.
	Origin string `yaml:"origin"`
}

// Layers returns the workspace's override stack as an explicit ordered list:
// lockfile defaults first, build-system overrides next, workspace overrides
// last. Keeping the order in one place is deliberate; scattered conditional
// patching of individual versions is exactly what this replaces.
func (w *Workspace) Layers() []Layer {
	return []Layer{
		{Name: LayerLock, Packages: w.Lockfile.Packages},
		{Name: LayerBuildSystem, Packages: w.Manifest.BuildSystem.Overrides},
		{Name: LayerWorkspace, Packages: w.WorkspaceOverrides},
	}
}

// ComposeLayers flattens an ordered layer stack into the final resolution.
// Later layers win whole-recipe per package name; fields are never merged
// across layers.
func ComposeLayers(layers ...Layer) map[string]ResolvedPackage {
	resolved := make(map[string]ResolvedPackage)

	for _, layer := range layers {
		for name, recipe := range layer.Packages {
			resolved[name] = ResolvedPackage{
				Recipe: recipe,
				Origin: layer.Name,
			}
		}
	}

	return resolved
}

// sortedPackageNames returns resolution keys in deterministic order.
func sortedPackageNames(resolved map[string]ResolvedPackage) []string {
	names := make([]string, 0, len(resolved))
	for name := range resolved {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
