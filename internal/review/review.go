package review

import (
	"errors"
	"time"
)

var ErrInvalidRating = errors.New("rating must be between 1 and 5")

// Review is a customer rating on a product. UserName is filled in at read
// time from the user record; it is never stored.
type Review struct {
	ID        int64     `json:"reviewId"`
	ProductID int       `json:"productId"`
	UserID    int       `json:"userId"`
	UserName  string    `json:"userName,omitempty"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
