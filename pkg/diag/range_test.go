package diag

import "testing"

type aRanger struct {
	Ranging
}

func TestEmbeddingRangingImplementsRanger(t *testing.T) {
	r := Ranging{1, 10}
	s := Ranger(aRanger{Ranging{1, 10}})
	if s.Range() != r {
		t.Errorf("s.Range() = %v, want %v", s.Range(), r)
	}
}

func TestUnknownRanging(t *testing.T) {
	if !Unknown.IsUnknown() {
		t.Errorf("Unknown.IsUnknown() = false, want true")
	}
	if (Ranging{1, 10}).IsUnknown() {
		t.Errorf("Ranging{1, 10}.IsUnknown() = true, want false")
	}
}

func TestPointRanging(t *testing.T) {
	if r := PointRanging(3); r != (Ranging{3, 3}) {
		t.Errorf("PointRanging(3) = %v, want Ranging{3, 3}", r)
	}
}

func TestMixedRanging(t *testing.T) {
	if r := MixedRanging(Ranging{1, 2}, Ranging{4, 8}); r != (Ranging{1, 8}) {
		t.Errorf("MixedRanging = %v, want Ranging{1, 8}", r)
	}
}
