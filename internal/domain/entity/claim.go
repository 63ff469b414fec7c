package entity

const (
	ClaimStatusPending  = "pending"
	ClaimStatusApproved = "approved"
	ClaimStatusRejected = "rejected"
)

// Claim records one user's assertion about another user's item. At most one
// claim exists per (item, claimer) pair. ItemName, ItemStatus and the
// claimer fields are snapshots taken at creation time.
type Claim struct {
	ID           string `json:"id" firestore:"id"`
	ItemID       string `json:"item_id" firestore:"itemId"`
	ItemName     string `json:"item_name" firestore:"itemName"`
	ItemStatus   string `json:"item_status" firestore:"itemStatus"` // item status when claimed, for UI phrasing
	ClaimerID    string `json:"claimer_id" firestore:"claimerId"`
	ClaimerName  string `json:"claimer_name" firestore:"claimerName"`
	ClaimerEmail string `json:"claimer_email" firestore:"claimerEmail"`
	OwnerID      string `json:"owner_id" firestore:"ownerId"`
	Message      string `json:"message" firestore:"message"`
	Status       string `json:"status" firestore:"status"` // "pending", "approved", "rejected"
	CreatedAt    string `json:"created_at" firestore:"createdAt"`
}

// IsDecided reports whether the claim reached a terminal status.
func (c *Claim) IsDecided() bool {
	return c.Status == ClaimStatusApproved || c.Status == ClaimStatusRejected
}
