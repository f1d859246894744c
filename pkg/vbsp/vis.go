package vbsp

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

// Visibility is the decoded potentially-visible set: PVS[c] holds the
// clusters visible from cluster c.
type Visibility struct {
	NumClusters int
	PVS         []*bitset.BitSet
}

// CanSee reports whether cluster to is potentially visible from cluster
// from. Out-of-range clusters are never visible.
func (v *Visibility) CanSee(from, to int) bool {
	if v == nil || from < 0 || from >= v.NumClusters || to < 0 || to >= v.NumClusters {
		return false
	}
	return v.PVS[from].Test(uint(to))
}

// VisibleClusters lists the clusters visible from cluster from.
func (v *Visibility) VisibleClusters(from int) []int {
	if v == nil || from < 0 || from >= v.NumClusters {
		return nil
	}
	var out []int
	row := v.PVS[from]
	for i, ok := row.NextSet(0); ok; i, ok = row.NextSet(i + 1) {
		out = append(out, int(i))
	}
	return out
}

// decodeVisibility reads the cluster count, the per-cluster offset table
// (PVS and PAS offsets, 8 bytes per cluster) and decodes every PVS row.
func decodeVisibility(data []byte) (*Visibility, error) {
	if len(data) == 0 {
		return &Visibility{}, nil
	}

	r := newReader(data, LumpVisibility.String())
	numClusters := int(r.i32())
	if r.err != nil {
		return nil, r.err
	}
	if numClusters < 0 || 4+numClusters*8 > len(data) {
		return nil, fmt.Errorf("%w: visibility declares %d clusters in %d bytes",
			ErrTruncated, numClusters, len(data))
	}

	vis := &Visibility{
		NumClusters: numClusters,
		PVS:         make([]*bitset.BitSet, numClusters),
	}
	for i := range numClusters {
		pvsOffset := int(r.i32())
		r.skip(4) // PAS offset
		row := bitset.New(uint(numClusters))
		if _, err := decodeVisRow(row, numClusters, data, pvsOffset); err != nil {
			return nil, fmt.Errorf("cluster %d: %w", i, err)
		}
		vis.PVS[i] = row
	}
	return vis, r.err
}

// decodeVisRow expands one run-length encoded row into dst. A non-zero
// byte carries 8 literal bits; a zero byte is followed by a count of
// 8-cluster groups to skip. Offset 0 means the row has no data and every
// cluster is visible. It returns the number of clusters consumed.
func decodeVisRow(dst *bitset.BitSet, clusterCount int, data []byte, offset int) (int, error) {
	if offset == 0 {
		dst.FlipRange(0, uint(clusterCount))
		return clusterCount, nil
	}

	r := newReader(data, LumpVisibility.String())
	r.seek(offset)
	cluster := 0
	for cluster < clusterCount {
		b := r.u8()
		if r.err != nil {
			return cluster, r.err
		}
		if b != 0 {
			for bit := 0; bit < 8; bit++ {
				if b&(1<<bit) != 0 && cluster+bit < clusterCount {
					dst.Set(uint(cluster + bit))
				}
			}
			cluster += 8
			continue
		}

		skip := r.u8()
		if r.err != nil {
			return cluster, r.err
		}
		cluster += 8 * int(skip)
	}
	return cluster, nil
}
