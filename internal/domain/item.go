package domain

import (
	"time"
)

// Rating bounds, inclusive.
const (
	MinRating = 1
	MaxRating = 10
)

// Item is a catalog entry together with its embedded reviews and rating
// aggregates.
type Item struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Slug          string       `json:"slug"`
	Description   string       `json:"description"`
	Price         float64      `json:"price"`
	Seller        string       `json:"seller"`
	Image         string       `json:"image"`
	Category      Category     `json:"category"`
	Attributes    AttributeSet `json:"attributes"`
	RatingSum     int          `json:"ratingSum"`
	ReviewerCount int          `json:"reviewerCount"`
	AvgRating     float64      `json:"avgRating"`
	Reviews       []ItemReview `json:"reviews"`
	CreatedAt     time.Time    `json:"createdAt"`
}

// ItemReview is one user's entry on an item. Rating is nil until the user
// rates; Text is empty until the user writes a review.
type ItemReview struct {
	UserID   string    `json:"userId"`
	Username string    `json:"username"`
	Rating   *int      `json:"rating,omitempty"`
	Text     string    `json:"text,omitempty"`
	Date     time.Time `json:"date"`
}

// ItemFilter narrows item listings. Query is a case-insensitive substring
// match on the name.
type ItemFilter struct {
	Category *Category
	Query    string
}

// RatingAggregate is the derived rating summary of one item.
type RatingAggregate struct {
	Sum   int
	Count int
	Avg   float64
}

// Recompute derives the aggregate from the full list of current ratings.
func Recompute(ratings []int) RatingAggregate {
	agg := RatingAggregate{Count: len(ratings)}
	for _, r := range ratings {
		agg.Sum += r
	}
	if agg.Count > 0 {
		agg.Avg = float64(agg.Sum) / float64(agg.Count)
	}
	return agg
}

// ValidRating reports whether r lies in [MinRating, MaxRating].
func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}

// ReviewBy returns the entry of userID, or nil.
func (i *Item) ReviewBy(userID string) *ItemReview {
	for idx := range i.Reviews {
		if i.Reviews[idx].UserID == userID {
			return &i.Reviews[idx]
		}
	}
	return nil
}

// ApplyRating sets the rating of userID, creating the entry when missing.
// Existing text is kept. It returns the replaced rating (0 if none) and
// whether this is the user's first rating of the item.
func (i *Item) ApplyRating(userID, username string, rating int, at time.Time) (old int, first bool) {
	r := rating
	if e := i.ReviewBy(userID); e != nil {
		if e.Rating != nil {
			old = *e.Rating
		} else {
			first = true
		}
		e.Rating = &r
		e.Username = username
		e.Date = at
	} else {
		first = true
		i.Reviews = append(i.Reviews, ItemReview{UserID: userID, Username: username, Rating: &r, Date: at})
	}
	i.Refresh()
	return old, first
}

// ApplyReviewText sets the review text of userID, creating an unrated entry
// when missing. An existing rating is kept.
func (i *Item) ApplyReviewText(userID, username, text string, at time.Time) {
	if e := i.ReviewBy(userID); e != nil {
		e.Text = text
		e.Username = username
		e.Date = at
		return
	}
	i.Reviews = append(i.Reviews, ItemReview{UserID: userID, Username: username, Text: text, Date: at})
}

// RemoveReviewsBy drops the entry of userID and refreshes the aggregates.
// It reports whether an entry was removed.
func (i *Item) RemoveReviewsBy(userID string) bool {
	kept := i.Reviews[:0]
	removed := false
	for _, r := range i.Reviews {
		if r.UserID == userID {
			removed = true
			continue
		}
		kept = append(kept, r)
	}
	i.Reviews = kept
	i.Refresh()
	return removed
}

// Ratings returns the ratings of all rated entries in list order.
func (i *Item) Ratings() []int {
	out := make([]int, 0, len(i.Reviews))
	for _, r := range i.Reviews {
		if r.Rating != nil {
			out = append(out, *r.Rating)
		}
	}
	return out
}

// ReviewerIDs returns the distinct user ids referenced by the item.
func (i *Item) ReviewerIDs() []string {
	seen := make(map[string]struct{}, len(i.Reviews))
	out := make([]string, 0, len(i.Reviews))
	for _, r := range i.Reviews {
		if _, ok := seen[r.UserID]; ok {
			continue
		}
		seen[r.UserID] = struct{}{}
		out = append(out, r.UserID)
	}
	return out
}

// Aggregate returns the stored aggregate fields.
func (i *Item) Aggregate() RatingAggregate {
	return RatingAggregate{Sum: i.RatingSum, Count: i.ReviewerCount, Avg: i.AvgRating}
}

// Refresh recomputes the aggregate fields from the review list.
func (i *Item) Refresh() {
	agg := Recompute(i.Ratings())
	i.RatingSum, i.ReviewerCount, i.AvgRating = agg.Sum, agg.Count, agg.Avg
}
