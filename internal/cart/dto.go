package cart

// PhotoView is the photo half of a cart line.
type PhotoView struct {
	PhotoID     int64   `json:"photo_id"`
	ImageURL    string  `json:"image_url"`
	Description *string `json:"description"`
}

// FormatView is the format half of a cart line, priced from the catalog.
type FormatView struct {
	FormatID    int64   `json:"format_id"`
	Name        string  `json:"name"`
	Price       string  `json:"price"`
	Description *string `json:"description"`
}

// ItemView is one cart line as returned by GET /api/v1/cart.
type ItemView struct {
	CartItemID int64      `json:"cart_item_id"`
	Quantity   int        `json:"quantity"`
	Photo      PhotoView  `json:"photo"`
	Format     FormatView `json:"format"`
}

// AddItemInput adds quantity prints of a photo in a format.
type AddItemInput struct {
	PhotoID  int64
	FormatID int64
	Quantity int
}

// AddItemResult reports the line the add landed on.
type AddItemResult struct {
	CartItemID int64 `json:"cart_item_id"`
	Quantity   int   `json:"quantity"`
	Merged     bool  `json:"merged"`
}

func toItemView(row ItemRow) ItemView {
	return ItemView{
		CartItemID: row.CartItemID,
		Quantity:   row.Quantity,
		Photo: PhotoView{
			PhotoID:     row.PhotoID,
			ImageURL:    row.ImageURL,
			Description: row.PhotoDescription,
		},
		Format: FormatView{
			FormatID:    row.FormatID,
			Name:        row.FormatName,
			Price:       row.Price.StringFixed(2),
			Description: row.FormatDescription,
		},
	}
}
