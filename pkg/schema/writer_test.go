package schema

import (
	"reflect"
	"testing"
)

func TestIntersect(t *testing.T) {
	values := map[string]interface{}{
		"code":     "ORD-1-1",
		"total":    245000.0,
		"currency": "VND",
		"note":     "giao gio hanh chinh",
	}

	// 线上表缺 note 列
	cols := []string{"id", "code", "total", "currency", "created_at"}

	got := Intersect(values, cols)
	want := map[string]interface{}{
		"code":     "ORD-1-1",
		"total":    245000.0,
		"currency": "VND",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Intersect = %v, want %v", got, want)
	}
}

func TestIntersectEmpty(t *testing.T) {
	values := map[string]interface{}{"a": 1, "b": 2}

	if got := Intersect(values, nil); len(got) != 0 {
		t.Errorf("no columns should yield empty map, got %v", got)
	}
	if got := Intersect(nil, []string{"a"}); len(got) != 0 {
		t.Errorf("no values should yield empty map, got %v", got)
	}
}
