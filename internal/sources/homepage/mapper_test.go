package homepage

import "testing"

func TestMapServices(t *testing.T) {
	cfg := ServicesConfig{
		{
			"Infrastructure": []map[string]ServiceProps{
				{"Traefik": {Href: " https://traefik.domain.ext ", Description: "Cloud Native Application Proxy"}},
				{"No Link": {Description: "skipped"}},
			},
		},
		{
			"Media": []map[string]ServiceProps{
				{"Jellyfin": {Href: "https://jellyfin.domain.ext", Description: "   "}},
			},
		},
	}

	inputs := MapServices(cfg)
	if len(inputs) != 2 {
		t.Fatalf("MapServices() returned %d inputs, want 2", len(inputs))
	}
	if inputs[0].URL != "https://traefik.domain.ext" {
		t.Errorf("URL not trimmed: %q", inputs[0].URL)
	}
	if inputs[1].Description != nil {
		t.Errorf("blank description should be absent, got %q", *inputs[1].Description)
	}
	for _, in := range inputs {
		if in.Order != nil {
			t.Errorf("%s: imported items must not carry an order", in.Name)
		}
	}
}

func TestMapBookmarksEmpty(t *testing.T) {
	if got := MapBookmarks(nil); len(got) != 0 {
		t.Errorf("MapBookmarks(nil) = %v, want empty", got)
	}

	cfg := BookmarksConfig{
		{"Dev": []map[string][]BookmarkEntry{{"Nothing": nil}}},
	}
	if got := MapBookmarks(cfg); len(got) != 0 {
		t.Errorf("bookmark without entries should be dropped, got %v", got)
	}
}

func TestHostLabel(t *testing.T) {
	tests := map[string]string{
		"https://jellyfin.domain.ext": "jellyfin",
		"https://localhost:8096":      "localhost",
		"not a url":                   "not a url",
	}
	for in, want := range tests {
		if got := hostLabel(in); got != want {
			t.Errorf("hostLabel(%q) = %q, want %q", in, got, want)
		}
	}
}
