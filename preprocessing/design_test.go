package preprocessing

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestStandardizeRoundTrip(t *testing.T) {
	raw := []float64{
		1, 2.5, -3,
		1, 4.0, 5,
		1, -1.5, 9,
		1, 0.5, 2,
	}
	values := mat.NewDense(4, 3, append([]float64(nil), raw...))
	d, err := NewDesignMatrix(values, []string{"Intercept", "dd", "ff"})
	if err != nil {
		t.Fatalf("NewDesignMatrix: %v", err)
	}

	d.Standardize()
	if !d.IsStandardized() {
		t.Fatal("design should be standardized")
	}

	// Intercept column untouched.
	for i := 0; i < 4; i++ {
		if d.Values().At(i, 0) != 1 {
			t.Errorf("intercept row %d changed to %v", i, d.Values().At(i, 0))
		}
	}

	d.Destandardize()
	for i := 0; i < 4; i++ {
		for j := 0; j < 3; j++ {
			want := raw[i*3+j]
			got := d.Values().At(i, j)
			if math.Abs(got-want) > 1e-12 {
				t.Errorf("round trip (%d,%d) = %v, want %v", i, j, got, want)
			}
		}
	}
}

func TestStandardizeIdempotent(t *testing.T) {
	values := mat.NewDense(3, 2, []float64{1, 2, 1, 4, 1, 6})
	d, err := NewDesignMatrix(values, []string{"Intercept", "x"})
	if err != nil {
		t.Fatalf("NewDesignMatrix: %v", err)
	}

	d.Standardize()
	first := mat.DenseCopyOf(d.Values())
	d.Standardize()

	if !mat.EqualApprox(first, d.Values(), 1e-15) {
		t.Error("second Standardize call modified the matrix")
	}
}

func TestDestandardizeCoefficients(t *testing.T) {
	// Fitted probabilities from destandardized coefficients on the raw
	// design must equal those from standardized coefficients on the
	// standardized design, so the linear predictors must agree.
	values := mat.NewDense(5, 3, []float64{
		1, 10, -2,
		1, 12, 0,
		1, 8, 1,
		1, 15, -1,
		1, 11, 3,
	})
	d, err := NewDesignMatrix(values, []string{"Intercept", "dd", "diff_t"})
	if err != nil {
		t.Fatalf("NewDesignMatrix: %v", err)
	}
	raw := mat.DenseCopyOf(d.Values())

	d.Standardize()
	betaStd := mat.NewVecDense(3, []float64{0.4, -1.1, 0.7})

	beta, err := d.DestandardizeCoefficients(betaStd)
	if err != nil {
		t.Fatalf("DestandardizeCoefficients: %v", err)
	}

	for i := 0; i < 5; i++ {
		var etaStd, etaRaw float64
		for j := 0; j < 3; j++ {
			etaStd += d.Values().At(i, j) * betaStd.AtVec(j)
			etaRaw += raw.At(i, j) * beta.AtVec(j)
		}
		if math.Abs(etaStd-etaRaw) > 1e-10 {
			t.Errorf("row %d: standardized eta %v != raw eta %v", i, etaStd, etaRaw)
		}
	}
}

func TestNewDesignWithIntercept(t *testing.T) {
	d, err := NewDesignWithIntercept([]string{"dd"}, [][]float64{{3, 5, 7}})
	if err != nil {
		t.Fatalf("NewDesignWithIntercept: %v", err)
	}

	if r, c := d.Dims(); r != 3 || c != 2 {
		t.Fatalf("Dims = (%d,%d), want (3,2)", r, c)
	}
	if d.Columns()[0] != InterceptColumn {
		t.Errorf("first column = %q, want Intercept", d.Columns()[0])
	}
	if d.InterceptIndex() != 0 {
		t.Errorf("InterceptIndex = %d, want 0", d.InterceptIndex())
	}
	// Intercept is degenerate: center 0, scale 1.
	if d.Center[0] != 0 || d.Scale[0] != 1 {
		t.Errorf("intercept center/scale = %v/%v, want 0/1", d.Center[0], d.Scale[0])
	}
}

func TestNewDesignWithInterceptShapeErrors(t *testing.T) {
	if _, err := NewDesignWithIntercept([]string{"dd", "ff"}, [][]float64{{1, 2}}); err == nil {
		t.Error("expected error for name/column count mismatch")
	}
	if _, err := NewDesignWithIntercept([]string{"dd", "ff"}, [][]float64{{1, 2}, {1, 2, 3}}); err == nil {
		t.Error("expected error for ragged columns")
	}
}

func TestConstantColumns(t *testing.T) {
	d, err := NewDesignWithIntercept([]string{"dd", "flat"}, [][]float64{{1, 2, 3}, {4, 4, 4}})
	if err != nil {
		t.Fatalf("NewDesignWithIntercept: %v", err)
	}

	constant := d.ConstantColumns()
	if len(constant) != 1 || constant[0] != "flat" {
		t.Errorf("ConstantColumns = %v, want [flat]", constant)
	}
}
