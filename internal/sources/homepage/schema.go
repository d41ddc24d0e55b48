package homepage

// ServicesConfig represents the top-level structure of services.yaml.
// Homepage keys groups and services by name, so the file is a list of
// single-key group maps, each holding a list of single-key service maps.
type ServicesConfig []map[string][]map[string]ServiceProps

// ServiceProps contains the service properties used for import.
// Widgets, pings and monitors are ignored.
type ServiceProps struct {
	Href        string `yaml:"href"`
	Icon        string `yaml:"icon,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// BookmarkEntry represents a single bookmark entry in the YAML
type BookmarkEntry struct {
	Icon string `yaml:"icon"`
	Abbr string `yaml:"abbr"`
	Href string `yaml:"href"`
}

// BookmarksConfig is the root structure for bookmarks.yaml
// The YAML structure is: - CategoryName: [ - BookmarkName: [{ icon, abbr, href }] ]
type BookmarksConfig []map[string][]map[string][]BookmarkEntry
