package mot

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

const (
	// motionDim is the size of the observable space: (cx, cy, aspect, height)
	motionDim = 4
	// stateDim is the size of the full state: observable part plus velocities
	stateDim = 8
)

// GatingThreshold is the 0.95 quantile of the chi-square distribution with 4
// degrees of freedom. Squared Mahalanobis distances above it mark a
// track/detection pair as implausible regardless of appearance score.
const GatingThreshold = 9.4877

// MotionFilter is a constant-velocity Kalman filter over the 8-dimensional
// state [cx, cy, a, h, vcx, vcy, va, vh] where (cx, cy) is the bounding box
// center, a the aspect ratio and h the height. Only the first four components
// are observed. Process and measurement noise are scaled by the current
// height, so larger objects tolerate larger absolute motion noise.
//
// The filter itself is stateless: per-track mean and covariance are owned by
// the Track and passed in explicitly.
type MotionFilter struct {
	motionMat *mat.Dense // state transition, stateDim x stateDim
	updateMat *mat.Dense // observation model, motionDim x stateDim

	stdWeightPosition float64
	stdWeightVelocity float64
}

// NewMotionFilter creates a motion filter with unit time step
func NewMotionFilter() *MotionFilter {
	dt := 1.0
	motionMat := mat.NewDense(stateDim, stateDim, nil)
	for i := 0; i < stateDim; i++ {
		motionMat.Set(i, i, 1.0)
	}
	for i := 0; i < motionDim; i++ {
		motionMat.Set(i, motionDim+i, dt)
	}
	updateMat := mat.NewDense(motionDim, stateDim, nil)
	for i := 0; i < motionDim; i++ {
		updateMat.Set(i, i, 1.0)
	}
	return &MotionFilter{
		motionMat:         motionMat,
		updateMat:         updateMat,
		stdWeightPosition: 1.0 / 20.0,
		stdWeightVelocity: 1.0 / 160.0,
	}
}

// Initiate creates the state for an unassociated measurement: zero velocity
// and a covariance derived from position/size uncertainty priors.
func (f *MotionFilter) Initiate(measurement [4]float64) (*mat.VecDense, *mat.Dense) {
	mean := mat.NewVecDense(stateDim, nil)
	for i := 0; i < motionDim; i++ {
		mean.SetVec(i, measurement[i])
	}

	h := measurement[3]
	std := []float64{
		2 * f.stdWeightPosition * h,
		2 * f.stdWeightPosition * h,
		1e-2,
		2 * f.stdWeightPosition * h,
		10 * f.stdWeightVelocity * h,
		10 * f.stdWeightVelocity * h,
		1e-5,
		10 * f.stdWeightVelocity * h,
	}
	covariance := mat.NewDense(stateDim, stateDim, nil)
	for i, s := range std {
		covariance.Set(i, i, s*s)
	}
	return mean, covariance
}

// Predict advances mean and covariance one time step. The returned state
// replaces the inputs; time_since_update bookkeeping is the track's concern.
func (f *MotionFilter) Predict(mean *mat.VecDense, covariance *mat.Dense) (*mat.VecDense, *mat.Dense) {
	h := mean.AtVec(3)
	std := []float64{
		f.stdWeightPosition * h,
		f.stdWeightPosition * h,
		1e-2,
		f.stdWeightPosition * h,
		f.stdWeightVelocity * h,
		f.stdWeightVelocity * h,
		1e-5,
		f.stdWeightVelocity * h,
	}
	motionCov := mat.NewDense(stateDim, stateDim, nil)
	for i, s := range std {
		motionCov.Set(i, i, s*s)
	}

	nextMean := mat.NewVecDense(stateDim, nil)
	nextMean.MulVec(f.motionMat, mean)

	var fp, nextCov mat.Dense
	fp.Mul(f.motionMat, covariance)
	nextCov.Mul(&fp, f.motionMat.T())
	nextCov.Add(&nextCov, motionCov)
	return nextMean, &nextCov
}

// Project maps the state estimate into the observable space. Read-only:
// neither input is mutated.
func (f *MotionFilter) Project(mean *mat.VecDense, covariance *mat.Dense) (*mat.VecDense, *mat.Dense) {
	h := mean.AtVec(3)
	std := []float64{
		f.stdWeightPosition * h,
		f.stdWeightPosition * h,
		1e-1,
		f.stdWeightPosition * h,
	}
	innovationCov := mat.NewDense(motionDim, motionDim, nil)
	for i, s := range std {
		innovationCov.Set(i, i, s*s)
	}

	projectedMean := mat.NewVecDense(motionDim, nil)
	projectedMean.MulVec(f.updateMat, mean)

	var hp, projectedCov mat.Dense
	hp.Mul(f.updateMat, covariance)
	projectedCov.Mul(&hp, f.updateMat.T())
	projectedCov.Add(&projectedCov, innovationCov)
	return projectedMean, &projectedCov
}

// Update runs the correction step for an observed (cx, cy, aspect, height)
// measurement, tightening the covariance.
func (f *MotionFilter) Update(mean *mat.VecDense, covariance *mat.Dense, measurement [4]float64) (*mat.VecDense, *mat.Dense, error) {
	projectedMean, projectedCov := f.Project(mean, covariance)

	var chol mat.Cholesky
	if ok := chol.Factorize(denseToSym(projectedCov)); !ok {
		return nil, nil, errors.New("projected covariance is not positive definite")
	}

	// Kalman gain K = P H^T S^-1, solved as S K^T = (P H^T)^T
	var pht mat.Dense
	pht.Mul(covariance, f.updateMat.T())
	var gainT mat.Dense
	if err := chol.SolveTo(&gainT, pht.T()); err != nil {
		return nil, nil, errors.Wrap(err, "can't solve for Kalman gain")
	}

	innovation := mat.NewVecDense(motionDim, nil)
	z := mat.NewVecDense(motionDim, []float64{measurement[0], measurement[1], measurement[2], measurement[3]})
	innovation.SubVec(z, projectedMean)

	newMean := mat.NewVecDense(stateDim, nil)
	newMean.MulVec(gainT.T(), innovation)
	newMean.AddVec(mean, newMean)

	// P - K S K^T
	var ks, kskt, newCov mat.Dense
	ks.Mul(gainT.T(), projectedCov)
	kskt.Mul(&ks, &gainT)
	newCov.Sub(covariance, &kskt)
	return newMean, &newCov, nil
}

// GatingDistance computes the squared Mahalanobis distance between the state
// projection and each measurement. Compared against GatingThreshold to reject
// implausible associations.
func (f *MotionFilter) GatingDistance(mean *mat.VecDense, covariance *mat.Dense, measurements [][4]float64) ([]float64, error) {
	projectedMean, projectedCov := f.Project(mean, covariance)

	var chol mat.Cholesky
	if ok := chol.Factorize(denseToSym(projectedCov)); !ok {
		return nil, errors.New("projected covariance is not positive definite")
	}

	distances := make([]float64, len(measurements))
	d := mat.NewVecDense(motionDim, nil)
	solved := mat.NewVecDense(motionDim, nil)
	for k, m := range measurements {
		for i := 0; i < motionDim; i++ {
			d.SetVec(i, m[i]-projectedMean.AtVec(i))
		}
		if err := chol.SolveVecTo(solved, d); err != nil {
			return nil, errors.Wrap(err, "can't solve gating system")
		}
		distances[k] = mat.Dot(d, solved)
	}
	return distances, nil
}

// denseToSym symmetrizes a square matrix for Cholesky factorization, averaging
// out floating point asymmetry accumulated by the propagation products.
func denseToSym(m *mat.Dense) *mat.SymDense {
	n, _ := m.Dims()
	s := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			s.SetSym(i, j, (m.At(i, j)+m.At(j, i))/2.0)
		}
	}
	return s
}
