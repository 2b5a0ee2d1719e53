package chart

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nvandessel/chartline/internal/models"
)

func samplePoints() []models.DataPoint {
	return []models.DataPoint{
		{XValue: 1, YValue: 2, Category: "Category A"},
		{XValue: 2, YValue: 4, Category: "Category B"},
		{XValue: 3, YValue: 1, Category: "Category A"},
		{XValue: 4, YValue: 8},
		{XValue: 5, YValue: 3, Category: "Category C"},
	}
}

func TestApplyFilter_AllReturnsEverything(t *testing.T) {
	points := samplePoints()
	got, err := ApplyFilter(points, models.FilterAll)
	if err != nil {
		t.Fatalf("ApplyFilter: %v", err)
	}
	if diff := cmp.Diff(points, got); diff != "" {
		t.Errorf("ApplyFilter(All) mismatch (-want +got):\n%s", diff)
	}

	// The result must be a copy.
	got[0].XValue = 99
	if points[0].XValue == 99 {
		t.Error("ApplyFilter(All) returned a slice aliasing the input")
	}
}

func TestApplyFilter_ByCategory(t *testing.T) {
	tests := []struct {
		option models.FilterOption
		want   []models.DataPoint
	}{
		{
			option: models.FilterCategoryA,
			want: []models.DataPoint{
				{XValue: 1, YValue: 2, Category: "Category A"},
				{XValue: 3, YValue: 1, Category: "Category A"},
			},
		},
		{
			option: models.FilterCategoryB,
			want:   []models.DataPoint{{XValue: 2, YValue: 4, Category: "Category B"}},
		},
		{
			option: models.FilterCategoryC,
			want:   []models.DataPoint{{XValue: 5, YValue: 3, Category: "Category C"}},
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.option), func(t *testing.T) {
			got, err := ApplyFilter(samplePoints(), tt.option)
			if err != nil {
				t.Fatalf("ApplyFilter: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
			for _, p := range got {
				if p.Category != string(tt.option) {
					t.Errorf("point %+v does not match %q", p, tt.option)
				}
			}
		})
	}
}

func TestApplyFilter_NoMatchIsEmptyNotError(t *testing.T) {
	points := []models.DataPoint{{XValue: 1, YValue: 1, Category: "Category A"}}
	got, err := ApplyFilter(points, models.FilterCategoryC)
	if err != nil {
		t.Fatalf("ApplyFilter: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("got %v, want empty non-nil slice", got)
	}
}

func TestApplyFilter_DoesNotMutateInput(t *testing.T) {
	points := samplePoints()
	before := samplePoints()
	if _, err := ApplyFilter(points, models.FilterCategoryA); err != nil {
		t.Fatalf("ApplyFilter: %v", err)
	}
	if diff := cmp.Diff(before, points); diff != "" {
		t.Errorf("input mutated (-before +after):\n%s", diff)
	}
}

func TestApplyFilter_InvalidInput(t *testing.T) {
	_, err := ApplyFilter(samplePoints(), "Category Z")
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("unknown option: err = %v, want ErrInvalidArgument", err)
	}

	_, err = ApplyFilter([]models.DataPoint{{XValue: math.NaN()}}, models.FilterAll)
	if !errors.Is(err, ErrInvalidData) {
		t.Errorf("NaN point: err = %v, want ErrInvalidData", err)
	}
}

func TestParseFilterOption(t *testing.T) {
	tests := []struct {
		input   string
		want    models.FilterOption
		wantErr bool
	}{
		{"", models.FilterAll, false},
		{"All", models.FilterAll, false},
		{" Category B ", models.FilterCategoryB, false},
		{"Category C", models.FilterCategoryC, false},
		{"category a", "", true},
		{"Everything", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFilterOption(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFilterOption(%q) err = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFilterOption(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
