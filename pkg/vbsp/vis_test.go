package vbsp

import (
	"errors"
	"slices"
	"testing"

	"github.com/bits-and-blooms/bitset"
)

func TestDecodeVisRow(t *testing.T) {
	tests := []struct {
		name     string
		clusters int
		row      []byte
		visible  []int
		consumed int
	}{
		{"literal bytes", 16, []byte{0x05, 0x80}, []int{0, 2, 15}, 16},
		{"skip then literal", 16, []byte{0x00, 0x01, 0x03}, []int{8, 9}, 16},
		{"skip everything", 16, []byte{0x00, 0x02}, nil, 16},
		{"bits past cluster count ignored", 4, []byte{0xFF}, []int{0, 1, 2, 3}, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Prefix one byte so the row does not start at offset 0.
			data := append([]byte{0xEE}, tt.row...)
			row := bitset.New(uint(tt.clusters))
			consumed, err := decodeVisRow(row, tt.clusters, data, 1)
			if err != nil {
				t.Fatalf("decodeVisRow: %v", err)
			}
			if consumed != tt.consumed {
				t.Errorf("consumed = %d, want %d", consumed, tt.consumed)
			}

			var got []int
			for i, ok := row.NextSet(0); ok; i, ok = row.NextSet(i + 1) {
				got = append(got, int(i))
			}
			if !slices.Equal(got, tt.visible) {
				t.Errorf("visible = %v, want %v", got, tt.visible)
			}
		})
	}
}

func TestDecodeVisRowZeroOffset(t *testing.T) {
	row := bitset.New(10)
	consumed, err := decodeVisRow(row, 10, nil, 0)
	if err != nil {
		t.Fatalf("decodeVisRow: %v", err)
	}
	if consumed != 10 {
		t.Errorf("consumed = %d, want 10", consumed)
	}
	if row.Count() != 10 {
		t.Errorf("visible count = %d, want 10", row.Count())
	}
}

func TestDecodeVisRowTruncated(t *testing.T) {
	row := bitset.New(16)
	_, err := decodeVisRow(row, 16, []byte{0xEE, 0x01}, 1)
	if !errors.Is(err, ErrTruncated) {
		t.Errorf("expected ErrTruncated, got %v", err)
	}
}

func TestDecodeVisibility(t *testing.T) {
	// 16 clusters: cluster 0 sees clusters 0 and 2, every other cluster
	// has no row and sees everything.
	const clusters = 16
	rowOffset := int32(4 + clusters*8)
	offsets := make([]int32, 0, clusters*2)
	offsets = append(offsets, rowOffset, 0)
	for range clusters - 1 {
		offsets = append(offsets, 0, 0)
	}
	data := le(t, int32(clusters), offsets, []byte{0x05, 0x00, 0x01})

	vis, err := decodeVisibility(data)
	if err != nil {
		t.Fatalf("decodeVisibility: %v", err)
	}
	if vis.NumClusters != clusters {
		t.Fatalf("NumClusters = %d, want %d", vis.NumClusters, clusters)
	}
	if got := vis.VisibleClusters(0); !slices.Equal(got, []int{0, 2}) {
		t.Errorf("VisibleClusters(0) = %v, want [0 2]", got)
	}
	if !vis.CanSee(0, 2) || vis.CanSee(0, 1) {
		t.Error("cluster 0 visibility mismatch")
	}
	if got := len(vis.VisibleClusters(5)); got != clusters {
		t.Errorf("cluster 5 sees %d clusters, want %d", got, clusters)
	}
	if vis.CanSee(0, clusters) || vis.CanSee(-1, 0) {
		t.Error("out-of-range clusters must not be visible")
	}
}

func TestDecodeVisibilityEmpty(t *testing.T) {
	vis, err := decodeVisibility(nil)
	if err != nil {
		t.Fatalf("decodeVisibility: %v", err)
	}
	if vis.NumClusters != 0 || vis.CanSee(0, 0) {
		t.Errorf("empty visibility = %+v", vis)
	}
}

func TestDecodeVisibilityBadCount(t *testing.T) {
	_, err := decodeVisibility(le(t, int32(100)))
	if !errors.Is(err, ErrTruncated) {
		t.Errorf("expected ErrTruncated, got %v", err)
	}
}
