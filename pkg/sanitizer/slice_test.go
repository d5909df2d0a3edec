package sanitizer

import (
	"reflect"
	"testing"
)

func TestNormalizeQualifications(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{
			name:  "convert to lowercase",
			input: []string{"Skipper", "PILOT"},
			want:  []string{"skipper", "pilot"},
		},
		{
			name:  "remove duplicates after normalizing",
			input: []string{"First Aid", "first-aid", "FIRST_AID"},
			want:  []string{"first_aid"},
		},
		{
			name:  "filter empty strings",
			input: []string{"skipper", "", "  ", "guide"},
			want:  []string{"skipper", "guide"},
		},
		{
			name:  "empty input",
			input: []string{},
			want:  []string{},
		},
		{
			name:  "nil input",
			input: nil,
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeQualifications(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeQualifications(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeIDs(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{
			name:  "trim and keep duplicates",
			input: []string{" C1", "C2 ", "C1"},
			want:  []string{"C1", "C2", "C1"},
		},
		{
			name:  "blanks stay in place",
			input: []string{"C1", " "},
			want:  []string{"C1", ""},
		},
		{
			name:  "nil stays nil",
			input: nil,
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeIDs(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeIDs(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
