package model

// Lot is the listing payload assembled at the terminal step of the lot
// creation flow. It is never persisted locally; the marketplace API owns it
// once submitted.
type Lot struct {
	TelegramID  int64    `json:"id_tlg"`
	Name        string   `json:"name"`
	CategoryIDs []int64  `json:"categories"`
	PhotoURLs   []string `json:"url_photos"`
	ChatURL     string   `json:"url_chat"`
	Description string   `json:"description"`
	Price       string   `json:"price"`
}
