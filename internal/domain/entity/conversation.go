package entity

import (
	"crypto/sha1"
	"encoding/hex"
	"sort"
)

// Conversation is a two-party thread, optionally scoped to an item. The pair
// is unordered: there is at most one conversation per pair per item, and one
// general thread per pair (empty ItemID).
type Conversation struct {
	ID               string            `json:"id" firestore:"id"`
	Participants     []string          `json:"participants" firestore:"participants"`
	ParticipantNames map[string]string `json:"participant_names" firestore:"participantNames"`
	ItemID           string            `json:"item_id" firestore:"itemId"`
	ItemName         string            `json:"item_name" firestore:"itemName"`
	LastMessage      string            `json:"last_message" firestore:"lastMessage"`
	LastMessageAt    string            `json:"last_message_at" firestore:"lastMessageAt"`
	LastSenderID     string            `json:"last_sender_id" firestore:"lastSenderId"`
}

// ConversationID derives the canonical document ID for a participant pair
// scoped to an item. Both orderings of the pair map to the same ID, so two
// racing creators collide on the same document and the loser can read back
// the winner's conversation.
func ConversationID(userA, userB, itemID string) string {
	pair := []string{userA, userB}
	sort.Strings(pair)
	sum := sha1.Sum([]byte(pair[0] + "|" + pair[1] + "|" + itemID))
	return hex.EncodeToString(sum[:])
}

func (c *Conversation) HasParticipant(userID string) bool {
	for _, id := range c.Participants {
		if id == userID {
			return true
		}
	}
	return false
}

// OtherParticipant returns the peer of the given user, for list rendering.
func (c *Conversation) OtherParticipant(userID string) (id, name string) {
	for _, pid := range c.Participants {
		if pid != userID {
			return pid, c.ParticipantNames[pid]
		}
	}
	return "", ""
}
