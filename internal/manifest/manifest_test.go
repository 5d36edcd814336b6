package manifest

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/valksor/go-updatebridge/internal/log"
)

func TestSelectNewest(t *testing.T) {
	tests := []struct {
		name    string
		entries []ReleaseEntry
		wantVer string
	}{
		{
			name:    "single entry",
			entries: []ReleaseEntry{{Version: "1.0.0", URL: "A"}},
			wantVer: "1.0.0",
		},
		{
			name: "newest wins regardless of order",
			entries: []ReleaseEntry{
				{Version: "2.0.0", URL: "A"},
				{Version: "1.5.0", URL: "B"},
			},
			wantVer: "2.0.0",
		},
		{
			name: "later newer entry replaces accumulator",
			entries: []ReleaseEntry{
				{Version: "1.0.0", URL: "A"},
				{Version: "3.0.0", URL: "B"},
				{Version: "2.0.0", URL: "C"},
			},
			wantVer: "3.0.0",
		},
		{
			name: "unparseable version never wins",
			entries: []ReleaseEntry{
				{Version: "1.0.0", URL: "A"},
				{Version: "not-a-version", URL: "B"},
				{Version: "", URL: "C"},
			},
			wantVer: "1.0.0",
		},
		{
			name: "invalid seed is never replaced",
			entries: []ReleaseEntry{
				{Version: "garbage", URL: "A"},
				{Version: "9.9.9", URL: "B"},
			},
			wantVer: "garbage",
		},
		{
			name: "v prefix and partial versions parse",
			entries: []ReleaseEntry{
				{Version: "v1.2", URL: "A"},
				{Version: "1.10.0", URL: "B"},
			},
			wantVer: "1.10.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectNewest(tt.entries)
			if err != nil {
				t.Fatalf("SelectNewest() error = %v", err)
			}
			if got.Version != tt.wantVer {
				t.Errorf("SelectNewest() version = %q, want %q", got.Version, tt.wantVer)
			}
		})
	}
}

func TestSelectNewestEmpty(t *testing.T) {
	_, err := SelectNewest(nil)
	if !errors.Is(err, ErrNoEntries) {
		t.Errorf("SelectNewest(nil) error = %v, want ErrNoEntries", err)
	}
}

func TestIsSelectionValid(t *testing.T) {
	logger := log.Nop()

	tests := []struct {
		name      string
		selected  *ReleaseEntry
		current   string
		osVersion string
		want      bool
	}{
		{
			name:     "nil selection",
			selected: nil,
			current:  "1.0.0",
			want:     false,
		},
		{
			name:     "strictly newer passes",
			selected: &ReleaseEntry{Version: "2.0.0"},
			current:  "1.0.0",
			want:     true,
		},
		{
			name:     "equal version rejected",
			selected: &ReleaseEntry{Version: "1.0.0"},
			current:  "1.0.0",
			want:     false,
		},
		{
			name:     "older version rejected",
			selected: &ReleaseEntry{Version: "0.9.0"},
			current:  "1.0.0",
			want:     false,
		},
		{
			name:      "supported os satisfied",
			selected:  &ReleaseEntry{Version: "2.0.0", SupportedOS: ">=10.0.0"},
			current:   "1.0.0",
			osVersion: "23.1.0",
			want:      true,
		},
		{
			name:      "supported os not satisfied rejects fresh version",
			selected:  &ReleaseEntry{Version: "2.0.0", SupportedOS: ">=99.0.0"},
			current:   "1.0.0",
			osVersion: "10.0",
			want:      false,
		},
		{
			name:      "unparseable supported os fails closed",
			selected:  &ReleaseEntry{Version: "2.0.0", SupportedOS: "not a range"},
			current:   "1.0.0",
			osVersion: "23.1.0",
			want:      false,
		},
		{
			name:      "unparseable local os version fails closed",
			selected:  &ReleaseEntry{Version: "2.0.0", SupportedOS: ">=10.0.0"},
			current:   "1.0.0",
			osVersion: "unknown",
			want:      false,
		},
		{
			name:     "unparseable selected version rejected",
			selected: &ReleaseEntry{Version: "garbage"},
			current:  "1.0.0",
			want:     false,
		},
		{
			name:     "unparseable current version rejected",
			selected: &ReleaseEntry{Version: "2.0.0"},
			current:  "garbage",
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsSelectionValid(tt.selected, tt.current, tt.osVersion, logger)
			if got != tt.want {
				t.Errorf("IsSelectionValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLocalize(t *testing.T) {
	entry := ReleaseEntry{
		URL:     "https://releases.example.com/app-2.0.0.zip",
		Version: "2.0.0",
		Notes:   "Fixes",
	}

	sel := entry.Localize("http://127.0.0.1:6190/download")

	if sel.URL != "http://127.0.0.1:6190/download" {
		t.Errorf("Localize() URL = %q", sel.URL)
	}
	if sel.RemoteURL != entry.URL {
		t.Errorf("Localize() RemoteURL = %q, want %q", sel.RemoteURL, entry.URL)
	}

	// The serialized payload must carry the local URL and never leak the
	// remote location.
	data, err := json.Marshal(sel)
	if err != nil {
		t.Fatal(err)
	}
	var round map[string]any
	if err := json.Unmarshal(data, &round); err != nil {
		t.Fatal(err)
	}
	if round["url"] != "http://127.0.0.1:6190/download" {
		t.Errorf("serialized url = %v", round["url"])
	}
	for k, v := range round {
		if s, ok := v.(string); ok && k != "url" && s == entry.URL {
			t.Errorf("remote URL leaked in field %q", k)
		}
	}
}

func TestReleaseEntryWireNames(t *testing.T) {
	raw := `{"url":"A","version":"1.2.3","name":"v1.2.3","notes":"n","pub_date":"2026-01-02","supportedOS":">=10.0.0"}`

	var e ReleaseEntry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		t.Fatal(err)
	}

	if e.URL != "A" || e.Version != "1.2.3" || e.Name != "v1.2.3" ||
		e.Notes != "n" || e.PubDate != "2026-01-02" || e.SupportedOS != ">=10.0.0" {
		t.Errorf("decoded entry = %+v", e)
	}
}
