package math

import (
	"testing"
)

func TestIdentity(t *testing.T) {
	m := Identity()
	// Diagonal should be 1
	if m[0] != 1 || m[5] != 1 || m[10] != 1 || m[15] != 1 {
		t.Error("Identity diagonal should be 1")
	}
	// Off-diagonal should be 0
	if m[1] != 0 || m[4] != 0 {
		t.Error("Identity off-diagonal should be 0")
	}
}

func TestMulIdentity(t *testing.T) {
	m := Translate(Vec3{1, 2, 3})
	result := m.Mul(Identity())

	for i := 0; i < 16; i++ {
		if result[i] != m[i] {
			t.Errorf("M * I should equal M, element %d: got %f, want %f", i, result[i], m[i])
		}
	}
}

func TestTransformPoint(t *testing.T) {
	m := Translate(Vec3{10, 20, 30})
	got := m.TransformPoint(Vec3{1, 2, 3})

	want := Vec3{11, 22, 33}
	if got != want {
		t.Errorf("TransformPoint: got %v, want %v", got, want)
	}
}

func TestTransformDirectionIgnoresTranslation(t *testing.T) {
	m := Translate(Vec3{10, 20, 30}).Mul(Scale(2))
	got := m.TransformDirection(Vec3{1, 0, 0})
	if got != (Vec3{2, 0, 0}) {
		t.Errorf("TransformDirection: got %v, want (2, 0, 0)", got)
	}
}

func TestFromAngles(t *testing.T) {
	tests := []struct {
		name   string
		angles Vec3
		in     Vec3
		want   Vec3
	}{
		{"yaw 90 turns +X to +Y", Vec3{0, 90, 0}, Vec3{1, 0, 0}, Vec3{0, 1, 0}},
		{"pitch 90 looks down", Vec3{90, 0, 0}, Vec3{1, 0, 0}, Vec3{0, 0, -1}},
		{"roll 90 turns +Y to +Z", Vec3{0, 0, 90}, Vec3{0, 1, 0}, Vec3{0, 0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromAngles(tt.angles).TransformDirection(tt.in)
			if got.Distance(tt.want) > 0.001 {
				t.Errorf("FromAngles(%v) * %v = %v, want %v", tt.angles, tt.in, got, tt.want)
			}
		})
	}
}
