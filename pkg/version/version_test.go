package version

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		parts   []int64
		wantErr bool
	}{
		{input: "1", parts: []int64{1}},
		{input: "1.0.0", parts: []int64{1}},
		{input: "130.0.1", parts: []int64{130, 0, 1}},
		{input: "0", parts: []int64{}},
		{input: "0.0", parts: []int64{}},
		{input: "10.20.30.40", parts: []int64{10, 20, 30, 40}},
		{input: "", wantErr: true},
		{input: "1.", wantErr: true},
		{input: ".1", wantErr: true},
		{input: "1..2", wantErr: true},
		{input: "1.-2", wantErr: true},
		{input: "1.2b3", wantErr: true},
		{input: "v1.2", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			o, err := Parse(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.parts, o.Parts())
			assert.Equal(t, tt.input, o.String())
		})
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{a: "1", b: "1.0.0", want: 0},
		{a: "1.0", b: "1", want: 0},
		{a: "0", b: "0.0.0", want: 0},
		{a: "1.2", b: "1.10", want: -1},
		{a: "1.10", b: "1.9", want: 1},
		{a: "2", b: "1.99.99", want: 1},
		{a: "1.0.1", b: "1", want: 1},
		{a: "130.0", b: "130.0.1", want: -1},
		{a: "1.2.3.4", b: "1.2.3.5", want: -1},
		{a: "10", b: "9", want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			a, b := MustParse(tt.a), MustParse(tt.b)
			assert.Equal(t, tt.want, a.Compare(b))
			assert.Equal(t, -tt.want, b.Compare(a), "compare must be antisymmetric")
		})
	}
}

func TestCompare_TotalOrder(t *testing.T) {
	inputs := []string{"3", "1.0.0", "2.1", "1", "2.0.9", "2.1.0", "0.9", "10"}
	ordinals := make([]*Ordinal, 0, len(inputs))
	for _, in := range inputs {
		ordinals = append(ordinals, MustParse(in))
	}

	slices.SortStableFunc(ordinals, Compare)

	got := make([]string, 0, len(ordinals))
	for _, o := range ordinals {
		got = append(got, o.String())
	}
	assert.Equal(t, []string{"0.9", "1.0.0", "1", "2.0.9", "2.1", "2.1.0", "3", "10"}, got)

	// transitivity over every triple
	for _, a := range ordinals {
		for _, b := range ordinals {
			for _, c := range ordinals {
				if a.Compare(b) <= 0 && b.Compare(c) <= 0 {
					assert.LessOrEqual(t, a.Compare(c), 0)
				}
			}
		}
	}
}

func TestMax(t *testing.T) {
	assert.Nil(t, Max(nil))

	best := Max([]*Ordinal{MustParse("129.0.2"), MustParse("130.0"), MustParse("128.3"), MustParse("130")})
	require.NotNil(t, best)
	assert.Equal(t, "130.0", best.String(), "first of equal versions wins")
}
