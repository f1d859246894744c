package math

import (
	"testing"
)

func TestVec2Add(t *testing.T) {
	a := Vec2{1, 2}
	b := Vec2{3, 4}
	got := a.Add(b)
	want := Vec2{4, 6}
	if got != want {
		t.Errorf("Vec2.Add() = %v, want %v", got, want)
	}
}

func TestVec2Length(t *testing.T) {
	v := Vec2{3, 4}
	got := v.Length()
	want := float32(5)
	if got != want {
		t.Errorf("Vec2.Length() = %v, want %v", got, want)
	}
}

func TestVec3Cross(t *testing.T) {
	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}
	got := x.Cross(y)
	want := Vec3{0, 0, 1}
	if got != want {
		t.Errorf("Vec3.Cross() = %v, want %v", got, want)
	}
}

func TestVec3Normalize(t *testing.T) {
	n := Vec3{3, 0, 4}.Normalize()
	l := n.Length()
	if l < 0.999 || l > 1.001 {
		t.Errorf("Vec3.Normalize().Length() = %v, want ~1", l)
	}
	if (Vec3{}).Normalize() != (Vec3{}) {
		t.Error("normalizing the zero vector should stay zero")
	}
}

func TestVec3Lerp(t *testing.T) {
	got := Vec3{0, 0, 0}.Lerp(Vec3{10, 20, 30}, 0.5)
	want := Vec3{5, 10, 15}
	if got != want {
		t.Errorf("Vec3.Lerp() = %v, want %v", got, want)
	}
}

func TestAABBExtend(t *testing.T) {
	b := EmptyAABB()
	if !b.IsEmpty() {
		t.Fatal("EmptyAABB should be empty")
	}
	b.Extend(Vec3{1, 2, 3})
	b.Extend(Vec3{-1, 5, 0})

	if b.Min != (Vec3{-1, 2, 0}) || b.Max != (Vec3{1, 5, 3}) {
		t.Errorf("AABB = %v..%v, want (-1,2,0)..(1,5,3)", b.Min, b.Max)
	}
	if b.Center() != (Vec3{0, 3.5, 1.5}) {
		t.Errorf("Center() = %v", b.Center())
	}
	if b.IsEmpty() {
		t.Error("extended box should not be empty")
	}
}

func TestAABBCorners(t *testing.T) {
	b := NewAABB(Vec3{0, 0, 0}, Vec3{1, 2, 3})
	seen := make(map[Vec3]bool)
	for i := 0; i < 8; i++ {
		seen[b.Corner(i)] = true
	}
	if len(seen) != 8 {
		t.Errorf("expected 8 distinct corners, got %d", len(seen))
	}
	if b.Corner(7) != b.Max || b.Corner(0) != b.Min {
		t.Error("corner 0 should be Min and corner 7 Max")
	}
}

func TestPlaneDistance(t *testing.T) {
	p := Plane{Normal: Vec3{0, 0, 1}, Dist: 10}
	if d := p.Distance(Vec3{5, 5, 15}); d != 5 {
		t.Errorf("Distance() = %v, want 5", d)
	}
	if d := p.Distance(Vec3{0, 0, 0}); d != -10 {
		t.Errorf("Distance() = %v, want -10", d)
	}
}
