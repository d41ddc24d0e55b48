package homepage

import (
	"net/url"
	"sort"
	"strings"

	"github.com/MrSnakeDoc/routine/internal/domain"
)

// MapServices flattens services into create inputs, in file order.
// Entries without href are dropped; validation happens at import time.
func MapServices(cfg ServicesConfig) []domain.CreateInput {
	var inputs []domain.CreateInput

	for _, groupMap := range cfg {
		for _, group := range sortedKeys(groupMap) {
			for _, serviceMap := range groupMap[group] {
				for _, serviceName := range sortedKeys(serviceMap) {
					props := serviceMap[serviceName]
					href := strings.TrimSpace(props.Href)
					if href == "" {
						continue
					}

					name := strings.TrimSpace(serviceName)
					if name == "" {
						name = hostLabel(href)
					}

					in := domain.CreateInput{Name: name, URL: href}
					if d := strings.TrimSpace(props.Description); d != "" {
						in.Description = &d
					}
					inputs = append(inputs, in)
				}
			}
		}
	}
	return inputs
}

// MapBookmarks flattens bookmarks into create inputs. The category becomes the description.
func MapBookmarks(cfg BookmarksConfig) []domain.CreateInput {
	var inputs []domain.CreateInput

	for _, categoryMap := range cfg {
		for _, category := range sortedKeys(categoryMap) {
			for _, bookmarkMap := range categoryMap[category] {
				for _, bookmarkName := range sortedKeys(bookmarkMap) {
					entries := bookmarkMap[bookmarkName]
					if len(entries) == 0 {
						continue
					}
					entry := entries[0]

					href := strings.TrimSpace(entry.Href)
					if href == "" {
						continue
					}

					name := strings.TrimSpace(bookmarkName)
					if name == "" {
						name = entry.Abbr
					}

					in := domain.CreateInput{Name: name, URL: href}
					if c := strings.TrimSpace(category); c != "" {
						in.Description = &c
					}
					inputs = append(inputs, in)
				}
			}
		}
	}
	return inputs
}

// hostLabel extracts the first DNS label of a URL.
// Example: "https://jellyfin.domain.ext" -> "jellyfin"
func hostLabel(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	return strings.Split(u.Hostname(), ".")[0]
}

// sortedKeys makes map iteration deterministic. Homepage maps hold a single key in practice.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
