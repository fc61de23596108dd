package ui

import (
	"strings"
	"testing"
)

func TestRoomInfoView(t *testing.T) {
	info := &RoomInfo{
		RoomID:   "be6a8781-0024-4bc8-8d62-f7c580ee7827",
		RoomLink: "https://class.example.com/meeting/be6a8781-0024-4bc8-8d62-f7c580ee7827?role=student",
	}
	view := info.View()

	if !strings.Contains(view, info.RoomID) {
		t.Error("view missing room id")
	}
	if !strings.Contains(view, "role=student") {
		t.Error("view missing invite link")
	}
}

func TestParticipantTableView(t *testing.T) {
	view := ParticipantTableView([]ParticipantRow{
		{ID: "teach1", Role: "teacher", State: "admitted"},
		{ID: "stud01", Role: "student", State: "pending"},
	})

	for _, want := range []string{"teach1", "stud01", "teacher", "student", "pending"} {
		if !strings.Contains(view, want) {
			t.Errorf("table missing %q", want)
		}
	}
}

func TestParticipantTableView_Empty(t *testing.T) {
	view := ParticipantTableView(nil)
	if !strings.Contains(view, "No participants") {
		t.Errorf("empty table = %q", view)
	}
}

func TestParticipantTableView_TruncatesLongIDs(t *testing.T) {
	long := strings.Repeat("a", 40)
	view := ParticipantTableView([]ParticipantRow{{ID: long, Role: "student", State: "pending"}})

	if strings.Contains(view, long) {
		t.Error("long id not truncated")
	}
	if !strings.Contains(view, "...") {
		t.Error("truncation marker missing")
	}
}
