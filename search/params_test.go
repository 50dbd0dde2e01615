package search

import (
	"reflect"
	"testing"
)

func TestAugment_WithoutBaseAddsContextKey(t *testing.T) {
	fn := Augment(nil, "store_id", Static("123"))

	got := fn(Params{"term": "ann"})
	want := Params{"term": "ann", "store_id": "123"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Augment() = %v, want %v", got, want)
	}
}

func TestAugment_WithoutBaseAndEmptyInput(t *testing.T) {
	fn := Augment(nil, "store_id", Static("123"))

	got := fn(nil)
	want := Params{"store_id": "123"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Augment() = %v, want exactly the contextual key %v", got, want)
	}
}

func TestAugment_PreservesBaseOutput(t *testing.T) {
	base := func(params Params) Params {
		out := params.Clone()
		out["page"] = 2
		out["_type"] = "query"
		return out
	}
	fn := Augment(base, "store_id", Static("77"))

	got := fn(Params{"term": "iva"})
	want := Params{"term": "iva", "page": 2, "_type": "query", "store_id": "77"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Augment() = %v, want superset of base output %v", got, want)
	}
}

func TestAugment_AbsentContextOmitsKey(t *testing.T) {
	cases := []struct {
		name   string
		supply Supplier
	}{
		{"nil supplier", nil},
		{"unavailable", func() (string, bool) { return "", false }},
		{"empty value", func() (string, bool) { return "", true }},
		{"whitespace value", func() (string, bool) { return "  ", true }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fn := Augment(nil, "store_id", tc.supply)
			got := fn(Params{"term": "ann"})
			if _, present := got["store_id"]; present {
				t.Fatalf("Augment() = %v, contextual key must be omitted, never empty", got)
			}
			if got["term"] != "ann" {
				t.Fatalf("Augment() dropped base parameters: %v", got)
			}
		})
	}
}

func TestAugment_SupplierResolvedPerCall(t *testing.T) {
	current := "1"
	fn := Augment(nil, "store_id", func() (string, bool) { return current, current != "" })

	if got := fn(Params{}); got["store_id"] != "1" {
		t.Fatalf("first call store_id = %v, want 1", got["store_id"])
	}

	current = "2"
	if got := fn(Params{}); got["store_id"] != "2" {
		t.Fatalf("second call store_id = %v, want the re-read value 2", got["store_id"])
	}

	current = ""
	if got := fn(Params{}); len(got) != 0 {
		t.Fatalf("call with absent context = %v, want empty params", got)
	}
}

func TestAugment_PureForStableContext(t *testing.T) {
	fn := Augment(nil, "store_id", Static("9"))

	first := fn(Params{"term": "x"})
	second := fn(Params{"term": "x"})
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated calls differ: %v vs %v", first, second)
	}
}

func TestAugment_DoesNotMutateInput(t *testing.T) {
	in := Params{"term": "ann"}
	fn := Augment(nil, "store_id", Static("123"))

	_ = fn(in)
	if _, present := in["store_id"]; present {
		t.Fatalf("input params mutated: %v", in)
	}
}
