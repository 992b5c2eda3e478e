// Package preprocessing provides the design-matrix standardization used for
// the concomitant model. Columns are centered and scaled for numerically
// stable estimation; fitted coefficients are transformed back to the
// original column units afterwards.
package preprocessing

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/foehnix/foehngo/pkg/errors"
)

// InterceptColumn is the conventional name of the all-ones intercept column.
const InterceptColumn = "Intercept"

// DesignMatrix is a concomitant model matrix with per-column centering and
// scaling information. Degenerate (zero-variance) columns such as the
// intercept get center 0 and scale 1, so standardization leaves them
// untouched.
type DesignMatrix struct {
	values  *mat.Dense
	columns []string

	// Center and Scale hold the per-column mean and sample standard
	// deviation computed at construction time.
	Center []float64
	Scale  []float64

	standardized bool
}

// NewDesignMatrix wraps a model matrix and computes per-column center and
// scale. The number of column names must match the matrix width.
func NewDesignMatrix(values *mat.Dense, columns []string) (*DesignMatrix, error) {
	r, c := values.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewModelError("preprocessing.NewDesignMatrix", "empty design", errors.ErrEmptyData)
	}
	if len(columns) != c {
		return nil, errors.NewDimensionError("preprocessing.NewDesignMatrix", c, len(columns), 1)
	}

	d := &DesignMatrix{
		values:  values,
		columns: append([]string(nil), columns...),
		Center:  make([]float64, c),
		Scale:   make([]float64, c),
	}

	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, values)
		mean, std := stat.MeanStdDev(col, nil)
		if std == 0 || math.IsNaN(std) {
			// Degenerate column, standardization is a no-op.
			d.Center[j] = 0
			d.Scale[j] = 1
		} else {
			d.Center[j] = mean
			d.Scale[j] = std
		}
	}
	return d, nil
}

// NewDesignWithIntercept builds a design matrix from named covariate columns
// prefixed with an all-ones intercept column. All covariate slices must have
// the same length.
func NewDesignWithIntercept(names []string, covariates [][]float64) (*DesignMatrix, error) {
	if len(names) != len(covariates) {
		return nil, errors.NewDimensionError("preprocessing.NewDesignWithIntercept", len(names), len(covariates), 1)
	}
	if len(covariates) == 0 || len(covariates[0]) == 0 {
		return nil, errors.NewModelError("preprocessing.NewDesignWithIntercept", "empty design", errors.ErrEmptyData)
	}

	n := len(covariates[0])
	values := mat.NewDense(n, len(names)+1, nil)
	for i := 0; i < n; i++ {
		values.Set(i, 0, 1)
	}
	for j, cov := range covariates {
		if len(cov) != n {
			return nil, errors.NewDimensionError("preprocessing.NewDesignWithIntercept", n, len(cov), 0)
		}
		for i, v := range cov {
			values.Set(i, j+1, v)
		}
	}

	columns := append([]string{InterceptColumn}, names...)
	return NewDesignMatrix(values, columns)
}

// Values returns the underlying model matrix. It reflects the current
// standardization state.
func (d *DesignMatrix) Values() *mat.Dense { return d.values }

// Columns returns the column names.
func (d *DesignMatrix) Columns() []string { return d.columns }

// Dims returns the matrix dimensions.
func (d *DesignMatrix) Dims() (r, c int) { return d.values.Dims() }

// IsStandardized reports whether Standardize has been applied.
func (d *DesignMatrix) IsStandardized() bool { return d.standardized }

// InterceptIndex returns the index of the intercept column, or -1.
func (d *DesignMatrix) InterceptIndex() int {
	for j, name := range d.columns {
		if name == InterceptColumn {
			return j
		}
	}
	return -1
}

// Standardize replaces every non-degenerate column with
// (value - center) / scale. Calling it twice is a no-op.
func (d *DesignMatrix) Standardize() {
	if d.standardized {
		return
	}
	r, c := d.values.Dims()
	for j := 0; j < c; j++ {
		if d.Center[j] == 0 && d.Scale[j] == 1 {
			continue
		}
		for i := 0; i < r; i++ {
			d.values.Set(i, j, (d.values.At(i, j)-d.Center[j])/d.Scale[j])
		}
	}
	d.standardized = true
}

// Destandardize restores the original column units. Calling it on a
// non-standardized design is a no-op.
func (d *DesignMatrix) Destandardize() {
	if !d.standardized {
		return
	}
	r, c := d.values.Dims()
	for j := 0; j < c; j++ {
		if d.Center[j] == 0 && d.Scale[j] == 1 {
			continue
		}
		for i := 0; i < r; i++ {
			d.values.Set(i, j, d.values.At(i, j)*d.Scale[j]+d.Center[j])
		}
	}
	d.standardized = false
}

// DestandardizeCoefficients transforms coefficients estimated on the
// standardized design back to original column units:
//
//	beta_j         = beta_std_j / scale_j           (j != intercept)
//	beta_intercept = beta_std_intercept - sum_j beta_std_j * center_j / scale_j
//
// The transform is exact. Without an intercept column it is only defined for
// all-zero centers.
func (d *DesignMatrix) DestandardizeCoefficients(beta *mat.VecDense) (*mat.VecDense, error) {
	_, c := d.values.Dims()
	if beta.Len() != c {
		return nil, errors.NewDimensionError("preprocessing.DestandardizeCoefficients", c, beta.Len(), 1)
	}

	intercept := d.InterceptIndex()
	if intercept < 0 {
		for j := 0; j < c; j++ {
			if d.Center[j] != 0 {
				return nil, errors.NewValidationError("design", "destandardization without an intercept requires zero-centered columns", d.columns[j])
			}
		}
	}

	out := mat.NewVecDense(c, nil)
	shift := 0.0
	for j := 0; j < c; j++ {
		if j == intercept {
			continue
		}
		out.SetVec(j, beta.AtVec(j)/d.Scale[j])
		shift += beta.AtVec(j) * d.Center[j] / d.Scale[j]
	}
	if intercept >= 0 {
		out.SetVec(intercept, beta.AtVec(intercept)-shift)
	}
	return out, nil
}

// ConstantColumns returns the names of degenerate columns other than the
// intercept. A constant covariate makes the concomitant model
// non-identifiable.
func (d *DesignMatrix) ConstantColumns() []string {
	var constant []string
	for j, name := range d.columns {
		if name == InterceptColumn {
			continue
		}
		if d.Center[j] == 0 && d.Scale[j] == 1 {
			// Degenerate marking from construction; verify the column is
			// genuinely constant and not centered unit-variance data.
			r, _ := d.values.Dims()
			isConst := true
			first := d.values.At(0, j)
			for i := 1; i < r; i++ {
				if d.values.At(i, j) != first {
					isConst = false
					break
				}
			}
			if isConst {
				constant = append(constant, name)
			}
		}
	}
	return constant
}
