package utils

import (
	"fmt"
	"math/rand"
	"time"
)

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// ParticipantIDLength is the length of locally generated participant IDs.
// Short and collision-tolerant rather than cryptographically unique; the
// relay scopes everything by room, so a clash only matters inside one room.
const ParticipantIDLength = 6

var rng = rand.New(rand.NewSource(time.Now().UnixNano()))

// NewParticipantID generates a short random base36 participant identifier.
func NewParticipantID() string {
	b := make([]byte, ParticipantIDLength)
	for i := range b {
		b[i] = idAlphabet[rng.Intn(len(idAlphabet))]
	}
	return string(b)
}

// TruncateString truncates a string to maxLen runes, appending "..." when cut.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 3 {
		maxLen = 3
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}

// FormatDuration renders a duration as "4m05s" for the session summary.
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	if m == 0 {
		return fmt.Sprintf("%ds", s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}
