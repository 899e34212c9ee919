package tomography

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/cmplxs"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/aristath/qtomo/internal/domain"
)

// Config holds the fixed hyperparameters of a reconstruction run. The
// algorithm performs no internal step-size search or rank adaptation; the
// caller supplies everything.
type Config struct {
	Qubits        int
	Rank          int
	StepSize      float64
	Momentum      float64
	MaxIterations int
	// Tolerance is the relative-change convergence threshold. Zero disables
	// the test, leaving the iteration budget as the only stop condition.
	Tolerance float64
	// Initializer selects how U0 is seeded: InitSpectral (the default when
	// empty) or InitRandom.
	Initializer string
	// Seed drives the randomized part of initialization; a fixed seed makes
	// the whole trajectory reproducible.
	Seed uint64
	// Workers bounds the per-label parallelism inside one iteration.
	Workers int
	// RunID tags logs and diagnostics; generated when empty.
	RunID string
}

const (
	// InitSpectral seeds U0 with the top-rank eigenvectors of the
	// back-projected measurement vector sum_k y_k * P_k, scaled to unit
	// trace. Measurement sets that pin the state down only partially still
	// start inside the data's best-supported subspace.
	InitSpectral = "spectral"
	// InitRandom seeds U0 with scaled complex Gaussian entries.
	InitRandom = "random"
)

// spectralIterations bounds the shifted power iteration used by the spectral
// initializer. The iterate only seeds the optimizer, so a fixed small budget
// is enough.
const spectralIterations = 50

// Validate performs all configuration checks before any work runs.
func (c Config) Validate() error {
	if c.Qubits <= 0 {
		return &domain.ConfigurationError{Field: "qubits", Reason: fmt.Sprintf("must be positive, got %d", c.Qubits)}
	}
	dim := 1 << c.Qubits
	if c.Rank < 1 || c.Rank > dim {
		return &domain.ConfigurationError{Field: "rank", Reason: fmt.Sprintf("must be in [1, %d], got %d", dim, c.Rank)}
	}
	if c.StepSize <= 0 || math.IsInf(c.StepSize, 0) || math.IsNaN(c.StepSize) {
		return &domain.ConfigurationError{Field: "step_size", Reason: fmt.Sprintf("must be positive and finite, got %g", c.StepSize)}
	}
	if c.Momentum < 0 || c.Momentum >= 1 || math.IsNaN(c.Momentum) {
		return &domain.ConfigurationError{Field: "momentum", Reason: fmt.Sprintf("must be in [0, 1), got %g", c.Momentum)}
	}
	if c.MaxIterations <= 0 {
		return &domain.ConfigurationError{Field: "max_iterations", Reason: fmt.Sprintf("must be positive, got %d", c.MaxIterations)}
	}
	if c.Tolerance < 0 || math.IsNaN(c.Tolerance) {
		return &domain.ConfigurationError{Field: "tolerance", Reason: fmt.Sprintf("must be non-negative, got %g", c.Tolerance)}
	}
	switch c.Initializer {
	case "", InitSpectral, InitRandom:
	default:
		return &domain.ConfigurationError{Field: "initializer", Reason: fmt.Sprintf("must be %q or %q, got %q", InitSpectral, InitRandom, c.Initializer)}
	}
	return nil
}

// Status is the optimizer's lifecycle state.
type Status int

const (
	StatusInit Status = iota
	StatusIterating
	StatusConverged
	StatusBudgetExhausted
	// StatusAborted marks a run halted before a normal stop condition: a
	// NumericalError or a cancelled context. The accompanying error from Run
	// carries the cause; the result keeps the last completed state.
	StatusAborted
)

func (s Status) String() string {
	switch s {
	case StatusInit:
		return "init"
	case StatusIterating:
		return "iterating"
	case StatusConverged:
		return "converged"
	case StatusBudgetExhausted:
		return "budget_exhausted"
	case StatusAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// WorkerState is a snapshot of the optimizer after a completed iteration.
type WorkerState struct {
	U              *mat.CDense
	Z              *mat.CDense
	Iteration      int
	Objective      float64
	RelativeChange float64
}

// Diagnostics summarizes one iteration.
type Diagnostics struct {
	Iteration      int
	Objective      float64
	RelativeChange float64
}

// Optimizer drives the MiFGD recovery: U_{i+1} = Z_i - eta * grad(Z_i),
// Z_{i+1} = U_{i+1} + mu * (U_{i+1} - U_i). Iterations are strictly
// sequential; parallelism lives inside the forward operator.
type Optimizer struct {
	cfg Config
	fwd *ForwardOperator
	y   []float64
	dim int

	// u is the current iterate and z the momentum look-ahead point.
	// Row-major dim x rank, owned exclusively by the optimizer and mutated
	// only at iteration boundaries.
	u         []complex128
	z         []complex128
	residual  []float64
	iteration int
	status    Status
	objective float64
	relChange float64

	log zerolog.Logger
}

// New validates the configuration and the alignment between the forward
// operator and the measurement vector, then prepares (but does not run) the
// optimizer.
func New(cfg Config, fwd *ForwardOperator, y []float64, log zerolog.Logger) (*Optimizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dim := 1 << cfg.Qubits
	if fwd.Dim() != dim {
		return nil, &domain.ConfigurationError{
			Field:  "qubits",
			Reason: fmt.Sprintf("forward operator dimension %d does not match 2^%d", fwd.Dim(), cfg.Qubits),
		}
	}
	if len(y) != fwd.NumLabels() {
		return nil, &domain.DataMismatchError{
			Reason: fmt.Sprintf("measurement vector has %d entries, forward operator has %d labels", len(y), fwd.NumLabels()),
		}
	}
	for i, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &domain.DataMismatchError{
				Reason: fmt.Sprintf("measurement vector entry %d is not finite", i),
			}
		}
	}
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}

	o := &Optimizer{
		cfg:      cfg,
		fwd:      fwd,
		y:        y,
		dim:      dim,
		residual: make([]float64, len(y)),
		log: log.With().
			Str("component", "mifgd").
			Str("run_id", cfg.RunID).
			Logger(),
	}
	o.init()
	return o, nil
}

// init seeds U0 and sets Z0 = U0. The spectral path refines a seeded random
// block; when it cannot (all-zero measurements, degenerate block), the
// scaled random initializer is used instead.
func (o *Optimizer) init() {
	rng := rand.New(rand.NewPCG(o.cfg.Seed, o.cfg.Seed))

	size := o.dim * o.cfg.Rank
	o.u = make([]complex128, size)
	for i := range o.u {
		o.u[i] = complex(rng.NormFloat64(), rng.NormFloat64())
	}

	random := o.cfg.Initializer == InitRandom
	if !random && !o.spectralInit() {
		random = true
	}
	if random {
		cmplxs.Scale(complex(1/math.Sqrt(2*float64(o.dim)), 0), o.u)
	}

	o.z = make([]complex128, size)
	copy(o.z, o.u)
	o.status = StatusInit
}

// spectralInit replaces the random block with the top-rank eigenvectors of
// A = sum_k y_k * P_k, scaled so Tr(U0 * U0†) = 1. A is never materialized:
// the shifted power iteration reuses the forward operator's adjoint path, and
// the shift by sum_k |y_k| keeps the iterated map positive semidefinite so
// the algebraically largest eigenvalues dominate. Returns false when the
// iteration cannot proceed, leaving o.u untouched.
func (o *Optimizer) spectralInit() bool {
	var shift float64
	for _, v := range o.y {
		shift += math.Abs(v)
	}
	if shift == 0 {
		return false
	}

	cols := o.cfg.Rank
	block := cloneCmplx(o.u)
	for it := 0; it < spectralIterations; it++ {
		next, err := o.fwd.adjoint(o.y, block, cols)
		if err != nil {
			return false
		}
		cmplxs.AddScaled(next, complex(shift, 0), block)
		block = next
		if !orthonormalize(block, o.dim, cols) {
			return false
		}
	}

	cmplxs.Scale(complex(1/math.Sqrt(float64(cols)), 0), block)
	o.u = block
	return true
}

// orthonormalize runs modified Gram-Schmidt over the columns of a row-major
// dim x cols block, in place. Returns false if a column degenerates.
func orthonormalize(data []complex128, dim, cols int) bool {
	for c := 0; c < cols; c++ {
		for p := 0; p < c; p++ {
			var dot complex128
			for i := 0; i < dim; i++ {
				vp := data[i*cols+p]
				dot += complex(real(vp), -imag(vp)) * data[i*cols+c]
			}
			for i := 0; i < dim; i++ {
				data[i*cols+c] -= dot * data[i*cols+p]
			}
		}

		var norm float64
		for i := 0; i < dim; i++ {
			v := data[i*cols+c]
			norm += real(v)*real(v) + imag(v)*imag(v)
		}
		norm = math.Sqrt(norm)
		if norm < 1e-12 {
			return false
		}
		inv := complex(1/norm, 0)
		for i := 0; i < dim; i++ {
			data[i*cols+c] *= inv
		}
	}
	return true
}

// Step performs exactly one iteration transition. On a NumericalError the
// optimizer's state is left at the last completed iteration.
func (o *Optimizer) Step() (Diagnostics, error) {
	if o.status == StatusConverged || o.status == StatusBudgetExhausted || o.status == StatusAborted {
		return Diagnostics{}, fmt.Errorf("optimizer already terminated with status %s", o.status)
	}
	o.status = StatusIterating
	cols := o.cfg.Rank

	// residual = predict(Z) - y
	preds, err := o.fwd.predict(o.z, cols)
	if err != nil {
		return Diagnostics{}, err
	}
	floats.SubTo(o.residual, preds, o.y)
	if !finiteFloats(o.residual) {
		return Diagnostics{}, &domain.NumericalError{Iteration: o.iteration, Quantity: "residual"}
	}

	// grad = sum_k residual[k] * P_k Z
	grad, err := o.fwd.adjoint(o.residual, o.z, cols)
	if err != nil {
		return Diagnostics{}, err
	}

	// U_{i+1} = Z - eta * grad
	newU := make([]complex128, len(o.z))
	copy(newU, o.z)
	cmplxs.AddScaled(newU, complex(-o.cfg.StepSize, 0), grad)
	if !finiteCmplx(newU) {
		return Diagnostics{}, &domain.NumericalError{Iteration: o.iteration, Quantity: "factor U"}
	}

	// Z_{i+1} = U_{i+1} + mu * (U_{i+1} - U_i)
	newZ := make([]complex128, len(newU))
	mu := complex(o.cfg.Momentum, 0)
	for i := range newU {
		newZ[i] = newU[i] + mu*(newU[i]-o.u[i])
	}
	if !finiteCmplx(newZ) {
		return Diagnostics{}, &domain.NumericalError{Iteration: o.iteration, Quantity: "momentum Z"}
	}

	o.objective = 0.5 * floats.Dot(o.residual, o.residual)
	o.relChange = relativeChange(newU, o.u)

	o.u = newU
	o.z = newZ
	o.iteration++

	diag := Diagnostics{
		Iteration:      o.iteration,
		Objective:      o.objective,
		RelativeChange: o.relChange,
	}

	if o.cfg.Tolerance > 0 && o.relChange < o.cfg.Tolerance {
		o.status = StatusConverged
	} else if o.iteration >= o.cfg.MaxIterations {
		o.status = StatusBudgetExhausted
	}
	return diag, nil
}

// Run drives iterations until convergence, budget exhaustion, or context
// cancellation. Cancellation is only checked at iteration boundaries and
// returns the last completed state alongside ctx.Err(). On a NumericalError
// the returned result carries the last valid WorkerState for diagnostics.
func (o *Optimizer) Run(ctx context.Context) (*Result, error) {
	trace := make([]float64, 0, o.cfg.MaxIterations)

	o.log.Info().
		Int("qubits", o.cfg.Qubits).
		Int("rank", o.cfg.Rank).
		Int("labels", o.fwd.NumLabels()).
		Float64("step_size", o.cfg.StepSize).
		Float64("momentum", o.cfg.Momentum).
		Int("budget", o.cfg.MaxIterations).
		Msg("Starting reconstruction")

	for o.status == StatusInit || o.status == StatusIterating {
		if err := ctx.Err(); err != nil {
			o.status = StatusAborted
			return o.result(trace), err
		}

		diag, err := o.Step()
		if err != nil {
			o.status = StatusAborted
			o.log.Error().Err(err).Int("iteration", o.iteration).Msg("Iteration aborted")
			return o.result(trace), err
		}
		trace = append(trace, diag.Objective)

		o.log.Debug().
			Int("iteration", diag.Iteration).
			Float64("objective", diag.Objective).
			Float64("relative_change", diag.RelativeChange).
			Msg("Iteration complete")
	}

	o.log.Info().
		Str("status", o.status.String()).
		Int("iterations", o.iteration).
		Float64("objective", o.objective).
		Msg("Reconstruction finished")
	return o.result(trace), nil
}

// State snapshots the last completed iteration.
func (o *Optimizer) State() WorkerState {
	return WorkerState{
		U:              mat.NewCDense(o.dim, o.cfg.Rank, cloneCmplx(o.u)),
		Z:              mat.NewCDense(o.dim, o.cfg.Rank, cloneCmplx(o.z)),
		Iteration:      o.iteration,
		Objective:      o.objective,
		RelativeChange: o.relChange,
	}
}

// Status returns the optimizer's lifecycle state.
func (o *Optimizer) Status() Status {
	return o.status
}

func (o *Optimizer) result(trace []float64) *Result {
	state := o.State()
	return &Result{
		RunID:          o.cfg.RunID,
		Status:         o.status,
		Iterations:     o.iteration,
		Objective:      trace,
		RelativeChange: o.relChange,
		U:              state.U,
		Last:           state,
	}
}

func cloneCmplx(s []complex128) []complex128 {
	out := make([]complex128, len(s))
	copy(out, s)
	return out
}

// relativeChange computes ||a - b||_F / ||b||_F, with the convention that a
// zero previous iterate yields the raw difference norm.
func relativeChange(a, b []complex128) float64 {
	var diff, norm float64
	for i := range a {
		d := a[i] - b[i]
		diff += real(d)*real(d) + imag(d)*imag(d)
		norm += real(b[i])*real(b[i]) + imag(b[i])*imag(b[i])
	}
	if norm == 0 {
		return math.Sqrt(diff)
	}
	return math.Sqrt(diff / norm)
}

func finiteFloats(s []float64) bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func finiteCmplx(s []complex128) bool {
	for _, v := range s {
		if math.IsNaN(real(v)) || math.IsInf(real(v), 0) || math.IsNaN(imag(v)) || math.IsInf(imag(v), 0) {
			return false
		}
	}
	return true
}
