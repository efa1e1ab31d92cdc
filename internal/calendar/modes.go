package calendar

type ModeID string

const (
	ModePoster  ModeID = "poster"
	ModeGrid    ModeID = "grid"
	ModeFilm    ModeID = "film"
	ModeDark    ModeID = "dark"
	ModeMinimal ModeID = "minimal"
)

type Mode struct {
	ID          ModeID `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

var modes = []Mode{
	{ID: ModePoster, Label: "Poster", Description: "Cover photo + compact calendar"},
	{ID: ModeGrid, Label: "Grid", Description: "Classic monthly grid"},
	{ID: ModeFilm, Label: "Film", Description: "Photography-first layout"},
	{ID: ModeDark, Label: "Dark", Description: "Dark gallery style"},
	{ID: ModeMinimal, Label: "Minimal", Description: "Typography-focused"},
}

// Modes returns the display modes in menu order.
func Modes() []Mode {
	out := make([]Mode, len(modes))
	copy(out, modes)
	return out
}

func IsMode(id string) bool {
	for _, m := range modes {
		if string(m.ID) == id {
			return true
		}
	}
	return false
}
