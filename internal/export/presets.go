package export

import "sort"

type Category string

const (
	CategoryPhone   Category = "phone"
	CategoryDesktop Category = "desktop"
)

// Preset is a named device resolution for wallpaper exports.
type Preset struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	Width       int      `json:"width"`
	Height      int      `json:"height"`
	Category    Category `json:"category"`
	AspectRatio string   `json:"aspectRatio"`
}

const (
	PresetPhoneHigh    = "phone_high"
	PresetPhoneCompat  = "phone_compat"
	PresetDesktop1080p = "desktop_1080p"
	PresetDesktop2K    = "desktop_2k"
)

var presets = map[string]Preset{
	PresetPhoneHigh: {
		ID: PresetPhoneHigh, Label: "Phone (High Resolution)",
		Width: 1290, Height: 2796, Category: CategoryPhone, AspectRatio: "19.5:9",
	},
	PresetPhoneCompat: {
		ID: PresetPhoneCompat, Label: "Phone (Universal)",
		Width: 1080, Height: 1920, Category: CategoryPhone, AspectRatio: "9:16",
	},
	PresetDesktop1080p: {
		ID: PresetDesktop1080p, Label: "Desktop 1080p",
		Width: 1920, Height: 1080, Category: CategoryDesktop, AspectRatio: "16:9",
	},
	PresetDesktop2K: {
		ID: PresetDesktop2K, Label: "Desktop 2K",
		Width: 2560, Height: 1440, Category: CategoryDesktop, AspectRatio: "16:9",
	},
}

// presetOrder keeps listings stable: phones first, then desktops, smaller
// resolutions last within a category.
var presetOrder = []string{PresetPhoneHigh, PresetPhoneCompat, PresetDesktop1080p, PresetDesktop2K}

func GetPreset(id string) (Preset, bool) {
	p, ok := presets[id]
	return p, ok
}

// Presets returns every preset in display order.
func Presets() []Preset {
	out := make([]Preset, 0, len(presetOrder))
	for _, id := range presetOrder {
		out = append(out, presets[id])
	}
	return out
}

func PresetsByCategory(c Category) []Preset {
	var out []Preset
	for _, p := range Presets() {
		if p.Category == c {
			out = append(out, p)
		}
	}
	return out
}

// DefaultPreset returns the preset id used when a caller only knows the
// device category.
func DefaultPreset(c Category) string {
	if c == CategoryPhone {
		return PresetPhoneHigh
	}
	return PresetDesktop1080p
}

// PresetIDs returns the known preset ids sorted alphabetically.
func PresetIDs() []string {
	ids := make([]string, 0, len(presets))
	for id := range presets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
