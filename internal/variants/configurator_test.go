package variants

import (
	"reflect"
	"testing"
)

func TestConfiguratorLookup(t *testing.T) {
	c := DefaultConfigurator()

	opts, ok := c.Lookup("Dining Table - SAND LAMINATE top")
	if !ok {
		t.Fatal("expected Sand Laminate match")
	}
	if !reflect.DeepEqual(opts.LegColors, []string{"Black", "Grey", "Sand", "White"}) {
		t.Fatalf("legs=%v", opts.LegColors)
	}
	if len(opts.Sizes) != 3 || opts.Sizes[0] != `225 x 90 cm / 88.5 x 35.5"` {
		t.Fatalf("sizes=%v", opts.Sizes)
	}

	opts, ok = c.Lookup("Table Black Linoleum")
	if !ok || !reflect.DeepEqual(opts.Sizes, DefaultSizes) {
		t.Fatalf("ok=%v sizes=%v", ok, opts.Sizes)
	}

	if _, ok := c.Lookup("Lounge Chair"); ok {
		t.Fatal("unexpected match")
	}
}

func TestConfiguratorFirstDeclaredWins(t *testing.T) {
	c := NewConfigurator([]Rule{
		{Surface: "Oak", LegColors: []string{"A"}},
		{Surface: "Smoked Oak", LegColors: []string{"B"}},
	})
	opts, ok := c.Lookup("Smoked Oak bench")
	if !ok || opts.LegColors[0] != "A" {
		t.Fatalf("ok=%v legs=%v", ok, opts.LegColors)
	}
}

func TestOptionsRender(t *testing.T) {
	got := Options{LegColors: []string{"Black", "Grey"}, Sizes: []string{"S", "M"}}.Render(Labels{LegColors: "Leg colors:", Sizes: "Sizes:"})
	want := "Leg colors: Black, Grey\nSizes: S, M"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}
