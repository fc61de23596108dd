package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	prettytable "github.com/jedib0t/go-pretty/v6/table"

	"github.com/minhaz-lariya/virtual-class/internal/utils"
)

// RoomInfo is the shareable identity of a freshly created meeting.
type RoomInfo struct {
	RoomID   string
	RoomLink string
}

func (r *RoomInfo) View() string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(Success).
		Padding(1, 2)

	content := fmt.Sprintf("%s Meeting Created!\n\n%s Room ID:  %s\n%s Invite:   %s",
		IconVideo,
		IconCopy, BoldStyle.Foreground(Primary).Render(r.RoomID),
		IconLink, MutedStyle.Render(r.RoomLink),
	)

	return boxStyle.Render(content)
}

func RenderRoomInfo(roomID, roomLink string) {
	info := &RoomInfo{RoomID: roomID, RoomLink: roomLink}
	fmt.Println(info.View())
}

// ParticipantRow is one line of the participant table.
type ParticipantRow struct {
	ID    string
	Role  string
	State string
}

// ParticipantTableView renders the room roster with lipgloss/table.
func ParticipantTableView(rows []ParticipantRow) string {
	if len(rows) == 0 {
		return MutedStyle.Render("No participants")
	}

	var tableRows [][]string
	for _, r := range rows {
		tableRows = append(tableRows, []string{
			utils.TruncateString(r.ID, 16), r.Role, r.State,
		})
	}

	tbl := lgtable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Primary)).
		Headers("Participant", "Role", "State").
		Rows(tableRows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == lgtable.HeaderRow:
				return TableHeaderStyle
			case row%2 == 0:
				return TableRowStyle
			default:
				return TableRowAltStyle
			}
		})

	return tbl.Render()
}

// SessionSummary is shown after the meeting ends.
type SessionSummary struct {
	RoomID   string
	Role     string
	Duration string
	Admitted int
	Messages int
}

// RenderSessionSummary prints the end-of-meeting stats table.
func RenderSessionSummary(summary SessionSummary) {
	t := prettytable.NewWriter()
	t.SetStyle(prettytable.StyleRounded)
	t.SetTitle("Meeting Summary")
	t.AppendHeader(prettytable.Row{"Metric", "Value"})
	t.AppendRows([]prettytable.Row{
		{"Room", summary.RoomID},
		{"Role", summary.Role},
		{"Duration", summary.Duration},
		{"Students admitted", summary.Admitted},
		{"Chat messages", summary.Messages},
	})
	fmt.Println(t.Render())
}
