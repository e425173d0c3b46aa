package datasets

import (
	"reflect"
	"testing"
)

func TestMakeBatchFlat(t *testing.T) {
	a := &Sample{ID: 0, Payload: Payload{Data: []float32{1, 2}, Shape: []int{2}}, Labels: [LabelWidth]int64{1, 2, 3, 0}}
	b := &Sample{ID: 1, Payload: Payload{Data: []float32{3, 4}, Shape: []int{2}}, Labels: [LabelWidth]int64{4, 5, 6, 1}}
	b.Concepts[2][5] = 2

	flat, err := MakeBatchFlat([]*Sample{a, b})
	if err != nil {
		t.Fatalf("MakeBatchFlat failed: %v", err)
	}
	if flat.BatchSize != 2 || flat.PayloadDim != 2 {
		t.Fatalf("unexpected batch dims %+v", flat)
	}
	if !reflect.DeepEqual(flat.Payload, []float32{1, 2, 3, 4}) {
		t.Fatalf("unexpected payload %v", flat.Payload)
	}
	if !reflect.DeepEqual(flat.Labels, []int64{1, 2, 3, 0, 4, 5, 6, 1}) {
		t.Fatalf("unexpected labels %v", flat.Labels)
	}
	if len(flat.Concepts) != 36 || flat.Concepts[35] != 2 {
		t.Fatalf("unexpected concepts %v", flat.Concepts)
	}

	p, l, c, err := flat.ToGomlxTensors()
	if err != nil {
		t.Fatalf("ToGomlxTensors failed: %v", err)
	}
	if !reflect.DeepEqual(p.Shape().Dimensions, []int{2, 2}) ||
		!reflect.DeepEqual(l.Shape().Dimensions, []int{2, 4}) ||
		!reflect.DeepEqual(c.Shape().Dimensions, []int{2, 3, 6}) {
		t.Fatalf("unexpected tensor dims %v %v %v", p.Shape().Dimensions, l.Shape().Dimensions, c.Shape().Dimensions)
	}
}

func TestMakeBatchFlatRejectsMixedShapes(t *testing.T) {
	a := &Sample{Payload: Payload{Data: []float32{1, 2}, Shape: []int{2}}}
	b := &Sample{Payload: Payload{Data: []float32{1, 2, 3}, Shape: []int{3}}}
	if _, err := MakeBatchFlat([]*Sample{a, b}); err == nil {
		t.Fatalf("expected an error for mixed payload shapes")
	}
}

func TestMakeBatchFlatEmpty(t *testing.T) {
	flat, err := MakeBatchFlat(nil)
	if err != nil {
		t.Fatalf("MakeBatchFlat failed: %v", err)
	}
	if flat.BatchSize != 0 {
		t.Fatalf("expected empty batch, got %+v", flat)
	}
}
