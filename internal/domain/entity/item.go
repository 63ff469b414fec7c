package entity

const (
	ItemStatusLost     = "lost"
	ItemStatusFound    = "found"
	ItemStatusResolved = "resolved"
)

type Item struct {
	ID          string `json:"id" firestore:"id"`
	Name        string `json:"name" firestore:"name"`
	Location    string `json:"location" firestore:"location"`
	Description string `json:"description" firestore:"description"`
	Status      string `json:"status" firestore:"status"` // "lost", "found", "resolved"
	CreatedBy   string `json:"created_by" firestore:"createdBy"`
	CreatedAt   string `json:"created_at" firestore:"createdAt"`
	ImageURL    string `json:"image_url,omitempty" firestore:"imageUrl,omitempty"`
}

func (i *Item) IsOwnedBy(userID string) bool {
	return i.CreatedBy == userID
}
