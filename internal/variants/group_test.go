package variants

import (
	"reflect"
	"testing"
)

func TestGroup(t *testing.T) {
	cases := []struct {
		name  string
		input []string
		want  string
	}{
		{
			name:  "color and size",
			input: []string{"Black - Frame - Small", "Black - Frame - Large", "White - Frame - Small"},
			want:  "Black: Large, Small\nWhite: Small",
		},
		{name: "no separator", input: []string{"Oak"}, want: "Oak"},
		{name: "two segments", input: []string{" Grey - 200 cm "}, want: "Grey: 200 cm"},
		{name: "duplicate sizes collapse", input: []string{"Sand - S", "Sand - X - S"}, want: "Sand: S"},
		{name: "bare and sized same color", input: []string{"Oak", "Oak - L"}, want: "Oak: L"},
		{name: "lines sorted", input: []string{"White", "Black - M", "Grey"}, want: "Black: M\nGrey\nWhite"},
		{name: "empty", input: nil, want: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Group(tc.input); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestDedupe(t *testing.T) {
	got := Dedupe([]string{"B - L", "A - S", "", "B - L", "  ", "A - S", "C"})
	want := []string{"B - L", "A - S", "C"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}
