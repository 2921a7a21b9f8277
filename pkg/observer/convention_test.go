package observer

import "testing"

func TestValidName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"gallery", true},
		{"photo-gallery", true},
		{"tab-2", true},
		{"a", true},
		{"", false},
		{"Gallery", false},
		{"photoGallery", false},
		{"2col", false},
		{"-gallery", false},
		{"gallery-", false},
		{"photo--gallery", false},
		{"photo_gallery", false},
		{"photo gallery", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidName(tt.name); got != tt.want {
				t.Errorf("ValidName(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestAttributeKeyFor(t *testing.T) {
	if got := AttributeKeyFor("es", "gallery"); got != "data-es-gallery" {
		t.Errorf("AttributeKeyFor() = %q, want %q", got, "data-es-gallery")
	}
	if got := AttributeKeyFor("my-app", "photo-gallery"); got != "data-my-app-photo-gallery" {
		t.Errorf("AttributeKeyFor() = %q", got)
	}
}

func TestAttributeKeyFor_Injective(t *testing.T) {
	names := []Name{"gallery", "gallery-2", "tooltip", "drop-down", "dropdown", "a", "a-b"}
	seen := make(map[string]Name)
	for _, n := range names {
		key := AttributeKeyFor("es", n)
		if prev, ok := seen[key]; ok {
			t.Fatalf("names %q and %q both map to %q", prev, n, key)
		}
		seen[key] = n
	}
}

func TestParseObserverName_RoundTrip(t *testing.T) {
	for _, prefix := range []string{"es", "defo", "my-app"} {
		for _, n := range []Name{"gallery", "photo-gallery", "x1"} {
			got, ok := ParseObserverName(prefix, AttributeKeyFor(prefix, n))
			if !ok || got != n {
				t.Errorf("ParseObserverName(%q, key(%q)) = %q, %v", prefix, n, got, ok)
			}
		}
	}
}

func TestParseObserverName_Rejects(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"other prefix", "data-xx-gallery"},
		{"plain data attribute", "data-gallery"},
		{"prefix only", "data-es-"},
		{"no data", "es-gallery"},
		{"invalid remainder", "data-es-photo_gallery"},
		{"class", "class"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, ok := ParseObserverName("es", tt.key); ok {
				t.Errorf("ParseObserverName(%q) = %q, want rejection", tt.key, got)
			}
		})
	}
}

func TestParseObserverName_CaseInsensitive(t *testing.T) {
	got, ok := ParseObserverName("es", "DATA-ES-Gallery")
	if !ok || got != "gallery" {
		t.Errorf("ParseObserverName() = %q, %v, want gallery", got, ok)
	}
}

func TestConvention_Resolve(t *testing.T) {
	reg := mustRegistry(t, map[Name]Factory{"gallery": (&recorder{}).factory})
	conv, err := NewConvention("es", reg)
	if err != nil {
		t.Fatalf("NewConvention() error: %v", err)
	}

	if name, ok := conv.Resolve("data-es-gallery"); !ok || name != "gallery" {
		t.Errorf("Resolve(registered) = %q, %v", name, ok)
	}

	name, ok := conv.Resolve("data-es-unknown")
	if ok {
		t.Error("Resolve(unknown) should not resolve")
	}
	if name != "unknown" {
		t.Errorf("Resolve(unknown) name = %q, want parsed name", name)
	}

	if name, ok := conv.Resolve("data-toggle"); ok || name != "" {
		t.Errorf("Resolve(unrelated) = %q, %v, want empty", name, ok)
	}

	if !conv.Matches("data-es-anything") {
		t.Error("Matches should accept keys under the prefix")
	}
	if conv.KeyFor("gallery") != "data-es-gallery" {
		t.Errorf("KeyFor() = %q", conv.KeyFor("gallery"))
	}
}

func TestNewConvention_InvalidPrefix(t *testing.T) {
	for _, prefix := range []string{"", "ES", "e s", "-es"} {
		if _, err := NewConvention(prefix, nil); err == nil {
			t.Errorf("NewConvention(%q) should fail", prefix)
		}
	}
}
