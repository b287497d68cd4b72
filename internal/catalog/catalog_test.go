package catalog

import (
	"reflect"
	"testing"
)

func testCatalog() *Catalog {
	cuts := []Cut{
		{ID: "parrillero", Name: "Parrillero", Percentage: 26},
		{ID: "asado", Name: "Asado", Percentage: 13, Macro: "parrillero"},
		{ID: "vacio", Name: "Vacío", Percentage: 7, Macro: "parrillero"},
		{ID: "matambre", Name: "Matambre", Percentage: 6, Macro: "parrillero"},
		{ID: "ruedas", Name: "Ruedas", Percentage: 38},
		{ID: "nalga", Name: "Nalga", Percentage: 20, Macro: "ruedas"},
		{ID: "peceto", Name: "Peceto", Percentage: 18, Macro: "ruedas"},
		{ID: "hueso", Name: "Hueso", Macro: "ruedas", FixedCost: true},
		{ID: "oreo", Name: "Oreo", ZeroExempt: true},
	}
	return New(cuts, []string{"parrillero", "ruedas"}, "oreo")
}

func ids(cuts []Cut) []string {
	out := make([]string, len(cuts))
	for i, c := range cuts {
		out[i] = c.ID
	}
	return out
}

func TestResolveDisplayCuts_NoSelectionKeepsMacros(t *testing.T) {
	c := testCatalog()

	got := ids(c.ResolveDisplayCuts(nil))
	want := []string{"parrillero", "ruedas", "oreo"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("display cuts = %v, want %v", got, want)
	}
}

func TestResolveDisplayCuts_AnySubCutSelectionExpandsWholeFamily(t *testing.T) {
	c := testCatalog()

	// Selecting only asado still expands every parrillero sub-cut: selection
	// toggles granularity, not per-sub-cut inclusion.
	got := ids(c.ResolveDisplayCuts(map[string]bool{"asado": true}))
	want := []string{"asado", "vacio", "matambre", "ruedas", "oreo"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("display cuts = %v, want %v", got, want)
	}
}

func TestResolveDisplayCuts_ExcludesFixedCostSubCuts(t *testing.T) {
	c := testCatalog()

	got := ids(c.ResolveDisplayCuts(map[string]bool{"nalga": true}))
	want := []string{"parrillero", "nalga", "peceto", "oreo"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("display cuts = %v, want %v", got, want)
	}
	for _, id := range got {
		if id == "hueso" {
			t.Fatal("fixed-cost cut must not be displayed")
		}
	}
}

func TestResolveDisplayCuts_SkipsStaleMacroReference(t *testing.T) {
	cuts := []Cut{
		{ID: "parrillero", Name: "Parrillero", Percentage: 26},
	}
	c := New(cuts, []string{"desaparecido", "parrillero"}, "oreo")

	got := ids(c.ResolveDisplayCuts(nil))
	want := []string{"parrillero"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("display cuts = %v, want %v", got, want)
	}
}

func TestResolveDisplayCuts_UtilityAppendedOnlyIfPresent(t *testing.T) {
	cuts := []Cut{{ID: "ruedas", Name: "Ruedas", Percentage: 38}}
	c := New(cuts, []string{"ruedas"}, "oreo")

	got := ids(c.ResolveDisplayCuts(nil))
	want := []string{"ruedas"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("display cuts = %v, want %v", got, want)
	}
}

func TestResolveDisplayCuts_Deterministic(t *testing.T) {
	c := testCatalog()
	sel := map[string]bool{"peceto": true}

	first := ids(c.ResolveDisplayCuts(sel))
	second := ids(c.ResolveDisplayCuts(sel))
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("resolution is not deterministic: %v vs %v", first, second)
	}
}
