package entity

// Message belongs to exactly one conversation (a Firestore sub-collection of
// its parent). SenderName is denormalized at send time and never rewritten,
// so message history keeps the name the sender had when they wrote it.
// Everything except the read flag is immutable after creation.
type Message struct {
	ID         string `json:"id" firestore:"id"`
	SenderID   string `json:"sender_id" firestore:"senderId"`
	SenderName string `json:"sender_name" firestore:"senderName"`
	Text       string `json:"text" firestore:"text"`
	SentAt     string `json:"sent_at" firestore:"sentAt"`
	Read       bool   `json:"read" firestore:"read"`
}
