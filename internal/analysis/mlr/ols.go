package mlr

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/ald0405/whoop-backend-go/internal/stats"
)

// Coefficient is one fitted term with its inference statistics.
type Coefficient struct {
	Name               string  `json:"name"`
	Value              float64 `json:"coefficient"`
	StdErr             float64 `json:"std_err"`
	TStat              float64 `json:"t_stat"`
	PValue             float64 `json:"p_value"`
	CILower            float64 `json:"ci_lower"`
	CIUpper            float64 `json:"ci_upper"`
	PartialCorrelation float64 `json:"partial_correlation"`
}

// Fit is a fitted ordinary least squares model on standardized
// predictors. Coefficients are in standardized units so their
// magnitudes are directly comparable.
type Fit struct {
	Target       string        `json:"target"`
	Intercept    Coefficient   `json:"intercept"`
	Coefficients []Coefficient `json:"coefficients"`
	RSquared     float64       `json:"r_squared"`
	AdjRSquared  float64       `json:"adj_r_squared"`
	NObs         int           `json:"n_observations"`
	DFResid      int           `json:"df_resid"`

	means []float64
	stds  []float64
}

// FitOLS fits y on standardized x columns plus an intercept. The normal
// equations are solved through an SVD pseudo-inverse, so a degenerate
// column (zero variance, duplicated predictor) yields NaN inference
// statistics instead of a failure; SanitizeFit turns those into
// serializable defaults.
func FitOLS(x [][]float64, y []float64, names []string, target string) *Fit {
	n := len(x)
	p := len(names)
	if n == 0 || p == 0 || n != len(y) {
		return nil
	}

	means, stds := columnMoments(x)
	design := mat.NewDense(n, p+1, nil)
	for i := 0; i < n; i++ {
		design.Set(i, 0, 1)
		for j := 0; j < p; j++ {
			design.Set(i, j+1, (x[i][j]-means[j])/stds[j])
		}
	}
	yVec := mat.NewVecDense(n, append([]float64(nil), y...))

	// beta = pinv(X'X) X'y
	var xtx mat.Dense
	xtx.Mul(design.T(), design)
	xtxInv := pseudoInverse(&xtx)
	if xtxInv == nil {
		return nil
	}
	var xty mat.VecDense
	xty.MulVec(design.T(), yVec)
	var beta mat.VecDense
	beta.MulVec(xtxInv, &xty)

	var fittedVec mat.VecDense
	fittedVec.MulVec(design, &beta)

	dfResid := n - (p + 1)
	var rss float64
	meanY := 0.0
	for i := 0; i < n; i++ {
		meanY += y[i]
	}
	meanY /= float64(n)
	var tss float64
	for i := 0; i < n; i++ {
		r := y[i] - fittedVec.AtVec(i)
		rss += r * r
		d := y[i] - meanY
		tss += d * d
	}

	sigma2 := math.NaN()
	if dfResid > 0 {
		sigma2 = rss / float64(dfResid)
	}

	fit := &Fit{
		Target:  target,
		NObs:    n,
		DFResid: dfResid,
		means:   means,
		stds:    stds,
	}
	if tss > 0 {
		fit.RSquared = 1 - rss/tss
		if dfResid > 0 {
			fit.AdjRSquared = 1 - (1-fit.RSquared)*float64(n-1)/float64(dfResid)
		}
	} else {
		fit.RSquared = math.NaN()
		fit.AdjRSquared = math.NaN()
	}

	tCrit := stats.TCritical(0.95, float64(dfResid))
	for j := 0; j <= p; j++ {
		c := Coefficient{Value: beta.AtVec(j)}
		se := math.Sqrt(sigma2 * xtxInv.At(j, j))
		c.StdErr = se
		c.TStat = c.Value / se
		c.PValue = twoSidedP(c.TStat, float64(dfResid))
		c.CILower = c.Value - tCrit*se
		c.CIUpper = c.Value + tCrit*se
		if j == 0 {
			c.Name = "intercept"
			fit.Intercept = c
			continue
		}
		c.Name = names[j-1]
		c.PartialCorrelation = partialCorrelation(c.TStat, float64(dfResid))
		fit.Coefficients = append(fit.Coefficients, c)
	}
	return fit
}

// Predict applies the fit to one unstandardized observation in the
// training column order.
func (f *Fit) Predict(x []float64) float64 {
	if len(x) != len(f.Coefficients) {
		return math.NaN()
	}
	pred := f.Intercept.Value
	for j, c := range f.Coefficients {
		pred += c.Value * (x[j] - f.means[j]) / f.stds[j]
	}
	return pred
}

// columnMoments yields per-column mean and standard deviation. A
// zero-variance column gets std 1 so standardization is the identity
// shift; the singular design then surfaces through the pseudo-inverse.
func columnMoments(x [][]float64) (means, stds []float64) {
	n := len(x)
	p := len(x[0])
	means = make([]float64, p)
	stds = make([]float64, p)
	for j := 0; j < p; j++ {
		var sum float64
		for i := 0; i < n; i++ {
			sum += x[i][j]
		}
		means[j] = sum / float64(n)
		var ss float64
		for i := 0; i < n; i++ {
			d := x[i][j] - means[j]
			ss += d * d
		}
		std := math.Sqrt(ss / float64(n))
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		stds[j] = std
	}
	return means, stds
}

func pseudoInverse(a *mat.Dense) *mat.Dense {
	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDThin) {
		return nil
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	vals := svd.Values(nil)

	tol := 1e-12
	if len(vals) > 0 {
		tol = 1e-12 * vals[0]
	}
	d := mat.NewDiagDense(len(vals), nil)
	for i, s := range vals {
		if s > tol {
			d.SetDiag(i, 1/s)
		}
	}

	var tmp, inv mat.Dense
	tmp.Mul(&v, d)
	inv.Mul(&tmp, u.T())
	return &inv
}

func twoSidedP(t, dfResid float64) float64 {
	if math.IsNaN(t) || dfResid <= 0 {
		return math.NaN()
	}
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: dfResid}
	return 2 * dist.Survival(math.Abs(t))
}

// partialCorrelation recovers the partial r between a predictor and the
// target from the predictor's t statistic.
func partialCorrelation(t, dfResid float64) float64 {
	if math.IsNaN(t) || dfResid <= 0 {
		return math.NaN()
	}
	return t / math.Sqrt(t*t+dfResid)
}
