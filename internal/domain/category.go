package domain

import (
	"fmt"
	"strings"

	apperrors "github.com/mustafakutlankale/my-ecommerce-app/pkg/errors"
)

// Category is one of the fixed catalog categories.
type Category string

// Catalog categories.
const (
	CategoryVinyls           Category = "Vinyls"
	CategoryAntiqueFurniture Category = "Antique Furniture"
	CategoryGPSSportWatches  Category = "GPS Sport Watches"
	CategoryRunningShoes     Category = "Running Shoes"
)

// Categories returns every category in display order.
func Categories() []Category {
	return []Category{
		CategoryVinyls,
		CategoryAntiqueFurniture,
		CategoryGPSSportWatches,
		CategoryRunningShoes,
	}
}

// ParseCategory matches s against the known categories, ignoring case and
// surrounding space.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range Categories() {
		if strings.EqualFold(string(c), s) {
			return c, nil
		}
	}
	return "", apperrors.InvalidInput(fmt.Sprintf("unknown category %q", s))
}

// AttributeSet is the flat wire and storage shape of category attributes.
// Which fields may be set depends on the category.
type AttributeSet struct {
	BatteryLife *string `json:"batteryLife,omitempty"`
	Age         *int    `json:"age,omitempty"`
	Size        *string `json:"size,omitempty"`
	Material    *string `json:"material,omitempty"`
}

// IsZero reports whether no attribute is set.
func (s AttributeSet) IsZero() bool {
	return s.BatteryLife == nil && s.Age == nil && s.Size == nil && s.Material == nil
}

// Attributes is the category-specific part of an item. Exactly one
// implementation exists per category.
type Attributes interface {
	Category() Category
	Set() AttributeSet
}

type VinylAttributes struct {
	Age *int
}

func (VinylAttributes) Category() Category { return CategoryVinyls }
func (a VinylAttributes) Set() AttributeSet {
	return AttributeSet{Age: a.Age}
}

type AntiqueFurnitureAttributes struct {
	Age      *int
	Material *string
}

func (AntiqueFurnitureAttributes) Category() Category { return CategoryAntiqueFurniture }
func (a AntiqueFurnitureAttributes) Set() AttributeSet {
	return AttributeSet{Age: a.Age, Material: a.Material}
}

type GPSSportWatchAttributes struct {
	BatteryLife *string
}

func (GPSSportWatchAttributes) Category() Category { return CategoryGPSSportWatches }
func (a GPSSportWatchAttributes) Set() AttributeSet {
	return AttributeSet{BatteryLife: a.BatteryLife}
}

type RunningShoeAttributes struct {
	Size     *string
	Material *string
}

func (RunningShoeAttributes) Category() Category { return CategoryRunningShoes }
func (a RunningShoeAttributes) Set() AttributeSet {
	return AttributeSet{Size: a.Size, Material: a.Material}
}

// BuildAttributes returns the variant for category holding the values in
// set. Attributes that do not belong to the category and negative ages are
// rejected. Blank strings count as unset.
func BuildAttributes(category Category, set AttributeSet) (Attributes, error) {
	set = normalize(set)
	if set.Age != nil && *set.Age < 0 {
		return nil, apperrors.InvalidInput("age must not be negative")
	}

	var (
		attrs   Attributes
		allowed AttributeSet
	)
	switch category {
	case CategoryVinyls:
		attrs = VinylAttributes{Age: set.Age}
	case CategoryAntiqueFurniture:
		attrs = AntiqueFurnitureAttributes{Age: set.Age, Material: set.Material}
	case CategoryGPSSportWatches:
		attrs = GPSSportWatchAttributes{BatteryLife: set.BatteryLife}
	case CategoryRunningShoes:
		attrs = RunningShoeAttributes{Size: set.Size, Material: set.Material}
	default:
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown category %q", category))
	}
	allowed = attrs.Set()

	var extra []string
	if set.BatteryLife != nil && allowed.BatteryLife == nil {
		extra = append(extra, "batteryLife")
	}
	if set.Age != nil && allowed.Age == nil {
		extra = append(extra, "age")
	}
	if set.Size != nil && allowed.Size == nil {
		extra = append(extra, "size")
	}
	if set.Material != nil && allowed.Material == nil {
		extra = append(extra, "material")
	}
	if len(extra) > 0 {
		return nil, apperrors.InvalidInput(fmt.Sprintf("attributes not valid for category %s: %s", category, strings.Join(extra, ", ")))
	}
	return attrs, nil
}

func normalize(set AttributeSet) AttributeSet {
	blank := func(p *string) *string {
		if p == nil {
			return nil
		}
		v := strings.TrimSpace(*p)
		if v == "" {
			return nil
		}
		return &v
	}
	set.BatteryLife = blank(set.BatteryLife)
	set.Size = blank(set.Size)
	set.Material = blank(set.Material)
	return set
}
