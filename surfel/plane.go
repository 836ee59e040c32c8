package surfel

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// FitPlane computes the centroid, unit normal, and ascending eigenvalues of
// the point covariance for pts via PCA: the normal is the eigenvector of
// the smallest eigenvalue. ok is false if there are too few points to fit
// (fewer than 4, mirroring the original's minimum-point-count gate before
// a voxel's plane is trusted).
func FitPlane(pts []r3.Vector) (center, normal r3.Vector, eigenvalues [3]float64, ok bool) {
	if len(pts) < 4 {
		return r3.Vector{}, r3.Vector{}, eigenvalues, false
	}

	for _, p := range pts {
		center = center.Add(p)
	}
	center = center.Mul(1 / float64(len(pts)))

	var cov [3][3]float64
	for _, p := range pts {
		d := p.Sub(center)
		dv := [3]float64{d.X, d.Y, d.Z}
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				cov[i][j] += dv[i] * dv[j]
			}
		}
	}
	n := float64(len(pts))
	sym := mat.NewSymDense(3, []float64{
		cov[0][0] / n, cov[0][1] / n, cov[0][2] / n,
		cov[1][0] / n, cov[1][1] / n, cov[1][2] / n,
		cov[2][0] / n, cov[2][1] / n, cov[2][2] / n,
	})

	var eig mat.EigenSym
	if !eig.Factorize(sym, true) {
		return center, r3.Vector{}, eigenvalues, false
	}

	vals := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	copy(eigenvalues[:], vals)
	normal = r3.Vector{X: vecs.At(0, 0), Y: vecs.At(1, 0), Z: vecs.At(2, 0)}.Normalize()
	return center, normal, eigenvalues, true
}
