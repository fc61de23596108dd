package cmd

import "testing"

func TestParseRoomInput(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "bare room id",
			input: "be6a8781-0024-4bc8-8d62-f7c580ee7827",
			want:  "be6a8781-0024-4bc8-8d62-f7c580ee7827",
		},
		{
			name:  "meeting url with role query",
			input: "https://class.example.com/meeting/be6a8781-0024-4bc8-8d62-f7c580ee7827?role=student",
			want:  "be6a8781-0024-4bc8-8d62-f7c580ee7827",
		},
		{
			name:  "meeting url with trailing slash",
			input: "https://class.example.com/meeting/room42/",
			want:  "room42",
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: true,
		},
		{
			name:    "url without meeting segment",
			input:   "https://class.example.com/about",
			wantErr: true,
		},
		{
			name:    "meeting segment with no id",
			input:   "https://class.example.com/meeting/",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRoomInput(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseRoomInput(%q) = %q, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseRoomInput(%q): %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("parseRoomInput(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
