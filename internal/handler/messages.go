package handler

import "github.com/yourorg/wardrobe/internal/domain"

// MessageKind discriminates inbound websocket envelopes. Dispatch is a
// switch over these constants; anything else hits the default arm and
// gets an unknown-type error reply.
type MessageKind string

const (
	KindCreateOutfit MessageKind = "create_outfit"
	KindGetOutfits   MessageKind = "get_outfits"
	KindUpdateOutfit MessageKind = "update_outfit"
	KindDeleteOutfit MessageKind = "delete_outfit"
)

// OutfitPayload carries the requested name and membership of an outfit
type OutfitPayload struct {
	Name    *string `json:"name"`
	ItemIDs []int   `json:"item_ids"`
}

// Envelope is the inbound websocket message. Every request carries the
// claimed username; mutations carry the outfit payload and, for
// update/delete, the target outfit id.
type Envelope struct {
	Type     MessageKind    `json:"type"`
	Username string         `json:"username"`
	OutfitID int            `json:"outfit_id,omitempty"`
	Outfit   *OutfitPayload `json:"outfit,omitempty"`
}

// ItemView is a member item inlined into outfit replies, so clients
// never need a follow-up fetch.
type ItemView struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	ImageURL string  `json:"image_url"`
	Category *string `json:"category"`
}

// OutfitView is a populated outfit as serialized to clients
type OutfitView struct {
	ID    int        `json:"id"`
	Name  *string    `json:"name"`
	Items []ItemView `json:"items"`
}

// OutfitCreatedMessage replies to create_outfit
type OutfitCreatedMessage struct {
	Type   string     `json:"type"`
	Outfit OutfitView `json:"outfit"`
}

// OutfitsListMessage replies to get_outfits
type OutfitsListMessage struct {
	Type    string       `json:"type"`
	Outfits []OutfitView `json:"outfits"`
}

// OutfitUpdatedMessage replies to update_outfit
type OutfitUpdatedMessage struct {
	Type   string     `json:"type"`
	Outfit OutfitView `json:"outfit"`
}

// OutfitDeletedMessage replies to delete_outfit
type OutfitDeletedMessage struct {
	Type     string `json:"type"`
	OutfitID int    `json:"outfit_id"`
}

// ErrorMessage is the uniform error reply
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func newOutfitView(outfit *domain.Outfit) OutfitView {
	items := make([]ItemView, 0, len(outfit.Clothes))
	for _, c := range outfit.Clothes {
		items = append(items, ItemView{
			ID:       c.ID,
			Name:     c.Name,
			ImageURL: c.ImageURL,
			Category: c.Category,
		})
	}
	return OutfitView{ID: outfit.ID, Name: outfit.Name, Items: items}
}

func errorReply(message string) ErrorMessage {
	return ErrorMessage{Type: "error", Message: message}
}
