package splice

import (
	"github.com/Faultbox/rigsplice/internal/block"
	"github.com/Faultbox/rigsplice/pkg/region"
)

// SpliceWeights is the user-set [dna][region] weight matrix of one pool.
type SpliceWeights struct {
	dnaCount    int
	regionCount int
	values      []float32
}

func newSpliceWeights(dnaCount, regionCount int) SpliceWeights {
	return SpliceWeights{
		dnaCount:    dnaCount,
		regionCount: regionCount,
		values:      make([]float32, dnaCount*regionCount),
	}
}

// DNACount returns the number of rows.
func (w *SpliceWeights) DNACount() int { return w.dnaCount }

// RegionCount returns the number of columns.
func (w *SpliceWeights) RegionCount() int { return w.regionCount }

// Row returns the region weights of one dna.
func (w *SpliceWeights) Row(dna int) []float32 {
	return w.values[dna*w.regionCount : (dna+1)*w.regionCount]
}

// set overwrites len(weights)/regionCount consecutive rows starting at dnaStart.
func (w *SpliceWeights) set(dnaStart int, weights []float32) error {
	if w.regionCount == 0 || len(weights)%w.regionCount != 0 {
		return statusf(InvalidWeightCount,
			"%d weights is not a multiple of region count %d", len(weights), w.regionCount)
	}
	rows := len(weights) / w.regionCount
	if dnaStart < 0 || dnaStart+rows > w.dnaCount {
		return statusf(InvalidWeightCount,
			"dna range [%d, %d) exceeds dna count %d", dnaStart, dnaStart+rows, w.dnaCount)
	}
	copy(w.values[dnaStart*w.regionCount:], weights)
	return nil
}

// VertexWeights caches per-vertex weights as [mesh][dna] tiles padded to
// whole blocks. Entries outside the filters used to compute it are nil.
type VertexWeights struct {
	meshes [][][]float32
}

func (vw *VertexWeights) empty() bool { return vw.meshes == nil }

func (vw *VertexWeights) clear() { vw.meshes = nil }

// Get returns the weights of every vertex of mesh for dna.
func (vw *VertexWeights) Get(mesh, dna int) []float32 {
	if mesh >= len(vw.meshes) || vw.meshes[mesh] == nil {
		return nil
	}
	return vw.meshes[mesh][dna]
}

func (vw *VertexWeights) compute(reg region.Reader, sw *SpliceWeights, meshes, dnas []int) {
	vw.meshes = make([][][]float32, reg.MeshCount())
	for _, mesh := range meshes {
		if mesh >= reg.MeshCount() || vw.meshes[mesh] != nil {
			continue
		}
		vertexCount := reg.VertexCount(mesh)
		perDNA := make([][]float32, sw.DNACount())
		for _, dna := range dnas {
			if perDNA[dna] != nil {
				continue
			}
			row := sw.Row(dna)
			w := make([]float32, block.Pad(vertexCount))
			for v := 0; v < vertexCount; v++ {
				regions, values := reg.VertexRegions(mesh, v)
				w[v] = dot(regions, values, row)
			}
			perDNA[dna] = w
		}
		vw.meshes[mesh] = perDNA
	}
}

// JointWeights caches per-joint weights as [dna] tiles padded to whole blocks.
type JointWeights struct {
	dnas [][]float32
}

func (jw *JointWeights) empty() bool { return jw.dnas == nil }

func (jw *JointWeights) clear() { jw.dnas = nil }

// Get returns the weights of every joint for dna.
func (jw *JointWeights) Get(dna int) []float32 {
	if dna >= len(jw.dnas) {
		return nil
	}
	return jw.dnas[dna]
}

func (jw *JointWeights) compute(reg region.Reader, sw *SpliceWeights, dnas []int) {
	jointCount := reg.JointCount()
	jw.dnas = make([][]float32, sw.DNACount())
	for _, dna := range dnas {
		if jw.dnas[dna] != nil {
			continue
		}
		row := sw.Row(dna)
		w := make([]float32, block.Pad(jointCount))
		for j := 0; j < jointCount; j++ {
			regions, values := reg.JointRegions(j)
			w[j] = dot(regions, values, row)
		}
		jw.dnas[dna] = w
	}
}

// dot multiplies a sparse affiliation vector with a dense region row.
func dot(regions []uint16, values, row []float32) float32 {
	var sum float32
	for k, r := range regions {
		sum += values[k] * row[r]
	}
	return sum
}
