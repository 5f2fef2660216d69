package review

import "testing"

func TestAppInfoApplyFirstValueWins(t *testing.T) {
	var info AppInfo

	changed := info.Apply(MetadataEntry{Name: "First", IconURL: "https://example.com/1.png"}, Overrides{})
	if !changed {
		t.Error("Expected first metadata to change app info")
	}

	changed = info.Apply(MetadataEntry{Name: "Second", IconURL: "https://example.com/2.png", LinkURL: "https://example.com"}, Overrides{})
	if !changed {
		t.Error("Expected new link to change app info")
	}

	if info.Name != "First" {
		t.Errorf("Expected name to keep first value, got: %s", info.Name)
	}
	if info.IconURL != "https://example.com/1.png" {
		t.Errorf("Expected icon to keep first value, got: %s", info.IconURL)
	}
	if info.LinkURL != "https://example.com" {
		t.Errorf("Expected link to be filled, got: %s", info.LinkURL)
	}
}

func TestAppInfoApplyRespectsOverrides(t *testing.T) {
	var info AppInfo

	changed := info.Apply(
		MetadataEntry{Name: "Discovered", IconURL: "https://example.com/icon.png", LinkURL: "https://example.com"},
		Overrides{Name: "Configured", IconURL: "https://example.com/configured.png", LinkURL: "https://example.com/configured"},
	)

	if changed {
		t.Error("Expected overridden fields to be left alone")
	}
	if info != (AppInfo{}) {
		t.Errorf("Expected empty app info, got: %+v", info)
	}
}
