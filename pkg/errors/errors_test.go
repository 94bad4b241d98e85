package errors

import (
	"fmt"
	"math"
	"strings"
	"testing"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name     string
		op       string
		kind     string
		err      error
		wantMsg  string
		hasStack bool
	}{
		{
			name:     "with original error",
			op:       "Fit",
			kind:     "invalid input",
			err:      fmt.Errorf("test error"),
			wantMsg:  "patchscope: Fit: invalid input: test error",
			hasStack: true,
		},
		{
			name:     "without original error",
			op:       "Predict",
			kind:     "not fitted",
			err:      nil,
			wantMsg:  "patchscope: Predict: not fitted",
			hasStack: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)

			// 基本的なエラーメッセージの確認
			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			// スタックトレースの存在確認
			if tt.hasStack {
				formatted := fmt.Sprintf("%+v", err)
				if !strings.Contains(formatted, "errors_test.go") {
					t.Error("Expected stack trace to contain test file name")
				}
			}

			// ModelError型にキャスト可能か確認
			var modelErr *ModelError
			if !As(err, &modelErr) {
				t.Error("Error should be castable to *ModelError")
			}
		})
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("Transform", 384, 3, 1)

	want := "patchscope: Transform: dimension mismatch on axis 1 (features). Expected 384, got 3"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var dimErr *DimensionError
	if !As(err, &dimErr) {
		t.Error("Error should be castable to *DimensionError")
	}
}

func TestNewStackMismatchError(t *testing.T) {
	tests := []struct {
		name  string
		field string
		img   string
		mask  string
		slice int
		want  string
	}{
		{
			name:  "length mismatch",
			field: "length",
			img:   "165",
			mask:  "164",
			slice: -1,
			want:  "patchscope: image/mask stack mismatch on length: image=165, mask=164",
		},
		{
			name:  "bounds mismatch",
			field: "bounds",
			img:   "768x1024",
			mask:  "768x768",
			slice: 12,
			want:  "patchscope: image/mask stack mismatch on bounds at slice 12: image=768x1024, mask=768x768",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewStackMismatchError(tt.field, tt.img, tt.mask, tt.slice)
			if err.Error() != tt.want {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.want)
			}

			var smErr *StackMismatchError
			if !As(err, &smErr) {
				t.Error("Error should be castable to *StackMismatchError")
			}
		})
	}
}

func TestNewLabelSetError(t *testing.T) {
	err := NewLabelSetError("ResizeMask", 9, 7, 3)

	want := "patchscope: ResizeMask: label value 9 at slice 3 outside the label set {0..6}"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var lsErr *LabelSetError
	if !As(err, &lsErr) {
		t.Error("Error should be castable to *LabelSetError")
	}
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("KMeans", "Predict")

	if !strings.Contains(err.Error(), "KMeans") || !strings.Contains(err.Error(), "Predict") {
		t.Errorf("Error() = %v, want model and method names", err.Error())
	}

	var nfErr *NotFittedError
	if !As(err, &nfErr) {
		t.Error("Error should be castable to *NotFittedError")
	}
}

func TestWarnHandler(t *testing.T) {
	var captured error
	SetWarningHandler(func(w error) {
		captured = w
	})
	defer SetWarningHandler(nil)

	warning := NewConvergenceWarning("KMeans", 300, "")
	Warn(warning)

	if captured == nil {
		t.Fatal("warning handler was not invoked")
	}
	if !strings.Contains(captured.Error(), "KMeans failed to converge after 300 iterations") {
		t.Errorf("unexpected warning message: %v", captured)
	}
}

func TestCheckNumericalStability(t *testing.T) {
	tests := []struct {
		name    string
		values  []float64
		wantErr bool
	}{
		{name: "finite values", values: []float64{0.1, -2.5, 1e12}, wantErr: false},
		{name: "contains NaN", values: []float64{0.1, math.NaN()}, wantErr: true},
		{name: "contains Inf", values: []float64{math.Inf(1), 0.0}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckNumericalStability("umap_layout", tt.values, 7)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckNumericalStability() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
