package history

import (
	"fmt"
	"time"

	"github.com/montage-cli/montage/util"
)

// SavedPosition is one resume point preserved across sessions.
type SavedPosition struct {
	Path      string    `json:"path"`
	Name      string    `json:"name"`
	Position  float64   `json:"position"`
	Duration  float64   `json:"duration"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Percent returns how much of the file had been played when the position
// was saved, in [0, 100].
func (s *SavedPosition) Percent() float64 {
	if s.Duration <= 0 {
		return 0
	}

	return util.Clamp(s.Position/s.Duration*100, 0, 100)
}

func (s *SavedPosition) String() string {
	return fmt.Sprintf("%s : %s / %s", s.Name, util.FormatTime(s.Position), util.FormatTime(s.Duration))
}
