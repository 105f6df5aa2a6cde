// Package memory holds map-backed repositories used in development and
// tests. Every read and write copies, so callers never share state with the
// store.
package memory

import (
	"slices"

	"github.com/mustafakutlankale/my-ecommerce-app/internal/domain"
)

func cloneItem(in *domain.Item) *domain.Item {
	out := *in
	out.Attributes = cloneAttributes(in.Attributes)
	out.Reviews = make([]domain.ItemReview, len(in.Reviews))
	for i, r := range in.Reviews {
		if r.Rating != nil {
			v := *r.Rating
			r.Rating = &v
		}
		out.Reviews[i] = r
	}
	return &out
}

func cloneAttributes(in domain.AttributeSet) domain.AttributeSet {
	out := domain.AttributeSet{}
	if in.BatteryLife != nil {
		v := *in.BatteryLife
		out.BatteryLife = &v
	}
	if in.Age != nil {
		v := *in.Age
		out.Age = &v
	}
	if in.Size != nil {
		v := *in.Size
		out.Size = &v
	}
	if in.Material != nil {
		v := *in.Material
		out.Material = &v
	}
	return out
}

func cloneUser(in *domain.User) *domain.User {
	out := *in
	out.Reviews = slices.Clone(in.Reviews)
	if out.Reviews == nil {
		out.Reviews = []domain.UserReview{}
	}
	return &out
}
