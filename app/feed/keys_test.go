package feed

import "testing"

func TestItemKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://itch.io/jam/x", "https://itch.io/jam/x"},
		{"  https://itch.io/jam/x  ", "https://itch.io/jam/x"},
		{"https://itch.io/jam/x#entries", "https://itch.io/jam/x"},
		{"https://itch.io/jam/x?page=2#top", "https://itch.io/jam/x?page=2"},
		{"https://itch.io/jam/x/", "https://itch.io/jam/x/"},
	}

	for _, tt := range tests {
		if got := ItemKey(tt.in); got != tt.want {
			t.Errorf("Expected ItemKey(%q) = %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestEntryGUID(t *testing.T) {
	guid := EntryGUID("https://itch.io/jam/x")

	if len(guid) != 40 {
		t.Errorf("Expected 40 hex characters, got %d", len(guid))
	}
	if guid != EntryGUID("https://itch.io/jam/x") {
		t.Errorf("Expected GUID to be deterministic")
	}
	if guid == EntryGUID("https://itch.io/jam/y") {
		t.Errorf("Expected different keys to produce different GUIDs")
	}
}
