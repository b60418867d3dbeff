package domain

import (
	"errors"
	"testing"
)

func TestNewConfigResolvesManifestAgainstOrigin(t *testing.T) {
	cfg := testConfig(t, ConfigInput{
		Origin:   "HTTPS://Shop.Example/ignored/path",
		Manifest: []string{"/", "/index.html", "styles.css", "/index.html#top", "https://cdn.example/font.woff2"},
	})

	want := []Asset{
		{Path: "/", Key: "https://shop.example/"},
		{Path: "/index.html", Key: "https://shop.example/index.html"},
		{Path: "styles.css", Key: "https://shop.example/styles.css"},
		{Path: "https://cdn.example/font.woff2", Key: "https://cdn.example/font.woff2"},
	}
	got := cfg.Assets()
	if len(got) != len(want) {
		t.Fatalf("assets = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("assets[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
	if cfg.Origin() != "https://shop.example" {
		t.Fatalf("origin = %q", cfg.Origin())
	}
	if cfg.RootURL() != "https://shop.example/" {
		t.Fatalf("root url = %q", cfg.RootURL())
	}
	if cfg.InstallConcurrency() != defaultInstallConcurrency {
		t.Fatalf("install concurrency = %d", cfg.InstallConcurrency())
	}
}

func TestNewConfigRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		input ConfigInput
	}{
		{name: "missing cache name", input: ConfigInput{CacheName: " ", Origin: testOrigin}},
		{name: "relative origin", input: ConfigInput{CacheName: "v1", Origin: "/app"}},
		{name: "non http origin", input: ConfigInput{CacheName: "v1", Origin: "ftp://shop.example"}},
		{name: "empty manifest entry", input: ConfigInput{CacheName: "v1", Origin: testOrigin, Manifest: []string{"/a", ""}}},
		{name: "unknown policy", input: ConfigInput{CacheName: "v1", Origin: testOrigin, Policy: InstallPolicy(9)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConfig(tt.input)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("err = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestConfigAccessorsReturnCopies(t *testing.T) {
	cfg := testConfig(t, ConfigInput{Manifest: []string{"/a.js", "/b.js"}})

	manifest := cfg.Manifest()
	manifest[0] = "/mutated.js"
	assets := cfg.Assets()
	assets[1].Key = "mutated"

	if cfg.Manifest()[0] != "/a.js" {
		t.Fatal("manifest mutation leaked into config")
	}
	if cfg.Assets()[1].Key != "https://shop.example/b.js" {
		t.Fatal("asset mutation leaked into config")
	}
}

func TestConfigSameOrigin(t *testing.T) {
	cfg := testConfig(t, ConfigInput{})
	cases := map[string]bool{
		"https://shop.example/":          true,
		"https://SHOP.example/cart?id=1": true,
		"http://shop.example/":           false,
		"https://other.example/":         false,
		"https://shop.example:8443/":     false,
		"::not a url":                    false,
	}
	for raw, want := range cases {
		if got := cfg.SameOrigin(raw); got != want {
			t.Fatalf("SameOrigin(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestParseInstallPolicy(t *testing.T) {
	if p, err := ParseInstallPolicy("Strict"); err != nil || p != InstallStrict {
		t.Fatalf("strict = %v, %v", p, err)
	}
	if p, err := ParseInstallPolicy(""); err != nil || p != InstallLenient {
		t.Fatalf("empty = %v, %v", p, err)
	}
	if _, err := ParseInstallPolicy("yolo"); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("err = %v, want ErrInvalidConfig", err)
	}
}
