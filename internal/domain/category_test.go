package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/mustafakutlankale/my-ecommerce-app/pkg/errors"
)

func ptr[T any](v T) *T { return &v }

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory(" running shoes ")
	require.NoError(t, err)
	assert.Equal(t, CategoryRunningShoes, c)

	_, err = ParseCategory("Cassettes")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestBuildAttributes(t *testing.T) {
	tests := []struct {
		name     string
		category Category
		set      AttributeSet
		want     Attributes
		wantErr  string
	}{
		{"vinyl age", CategoryVinyls, AttributeSet{Age: ptr(42)}, VinylAttributes{Age: ptr(42)}, ""},
		{"vinyl empty", CategoryVinyls, AttributeSet{}, VinylAttributes{}, ""},
		{"furniture", CategoryAntiqueFurniture, AttributeSet{Age: ptr(120), Material: ptr("oak")}, AntiqueFurnitureAttributes{Age: ptr(120), Material: ptr("oak")}, ""},
		{"watch", CategoryGPSSportWatches, AttributeSet{BatteryLife: ptr("14 days")}, GPSSportWatchAttributes{BatteryLife: ptr("14 days")}, ""},
		{"shoes", CategoryRunningShoes, AttributeSet{Size: ptr("44"), Material: ptr("mesh")}, RunningShoeAttributes{Size: ptr("44"), Material: ptr("mesh")}, ""},
		{"blank strings are unset", CategoryVinyls, AttributeSet{Material: ptr("  ")}, VinylAttributes{}, ""},
		{"watch with size", CategoryGPSSportWatches, AttributeSet{Size: ptr("M")}, nil, "size"},
		{"vinyl with material and battery", CategoryVinyls, AttributeSet{Material: ptr("pvc"), BatteryLife: ptr("1h")}, nil, "batteryLife, material"},
		{"negative age", CategoryAntiqueFurniture, AttributeSet{Age: ptr(-1)}, nil, "negative"},
		{"unknown category", Category("Toys"), AttributeSet{}, nil, "unknown category"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildAttributes(tt.category, tt.set)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.category, got.Category())
		})
	}
}

func TestAttributes_SetRoundTrip(t *testing.T) {
	in := AttributeSet{Size: ptr("42"), Material: ptr("leather")}
	attrs, err := BuildAttributes(CategoryRunningShoes, in)
	require.NoError(t, err)
	assert.Equal(t, in, attrs.Set())
	assert.False(t, attrs.Set().IsZero())
	assert.True(t, AttributeSet{}.IsZero())
}
