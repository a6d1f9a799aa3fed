package checkout

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/printshop-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
)

// AddressInput is the shipping address submitted with a checkout.
type AddressInput struct {
	FullName string
	Address  string
	City     string
	State    string
	Zip      string
	Country  string
}

// LineInput is one cart line as the client submitted it. ClientPrice is
// informational only.
type LineInput struct {
	CartItemID  *int64
	PhotoID     int64
	FormatID    int64
	Quantity    int
	ClientPrice *decimal.Decimal
}

// Input is the full checkout submission.
type Input struct {
	Address AddressInput
	Lines   []LineInput
}

// Line is a validated line priced from the catalog.
type Line struct {
	PhotoID     int64
	FormatID    int64
	Quantity    int
	UnitPrice   decimal.Decimal
	ClientPrice *decimal.Decimal
}

// LineTotal returns quantity × catalog unit price.
func (l Line) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// PriceMismatch reports whether the client sent a price that differs from the catalog.
func (l Line) PriceMismatch() bool {
	return l.ClientPrice != nil && !l.ClientPrice.Equal(l.UnitPrice)
}

// CartSnapshot is the immutable, validated view of a cart at checkout time.
type CartSnapshot struct {
	Address AddressInput
	Lines   []Line
}

// Total sums every line at catalog price.
func (s CartSnapshot) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range s.Lines {
		total = total.Add(line.LineTotal())
	}
	return total
}

// ValidateShape checks everything that does not need the catalog.
func ValidateShape(in Input) error {
	details := map[string]any{}

	var missing []string
	for field, value := range map[string]string{
		"full_name": in.Address.FullName,
		"address":   in.Address.Address,
		"city":      in.Address.City,
		"state":     in.Address.State,
		"zip":       in.Address.Zip,
	} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		details["shipping_address"] = missing
	}

	if len(in.Lines) == 0 {
		details["cart_items"] = "at least one item is required"
	}
	var badLines []int
	for i, line := range in.Lines {
		if line.PhotoID <= 0 || line.FormatID <= 0 || line.Quantity < 1 {
			badLines = append(badLines, i)
		}
	}
	if len(badLines) > 0 {
		details["invalid_items"] = badLines
	}

	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid checkout payload").WithDetails(details)
	}
	return nil
}

// NewSnapshot validates in against prices and freezes catalog prices on every
// line. Unknown formats fail the whole snapshot.
func NewSnapshot(in Input, prices catalog.Prices, defaultCountry string) (CartSnapshot, error) {
	if err := ValidateShape(in); err != nil {
		return CartSnapshot{}, err
	}

	lines := make([]Line, 0, len(in.Lines))
	var unknown []int64
	seen := map[int64]bool{}
	for _, raw := range in.Lines {
		price, ok := prices.Lookup(raw.FormatID)
		if !ok {
			if !seen[raw.FormatID] {
				unknown = append(unknown, raw.FormatID)
				seen[raw.FormatID] = true
			}
			continue
		}
		lines = append(lines, Line{
			PhotoID:     raw.PhotoID,
			FormatID:    raw.FormatID,
			Quantity:    raw.Quantity,
			UnitPrice:   price,
			ClientPrice: raw.ClientPrice,
		})
	}
	if len(unknown) > 0 {
		return CartSnapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown format").
			WithDetails(map[string]any{"unknown_format_ids": unknown})
	}

	address := AddressInput{
		FullName: strings.TrimSpace(in.Address.FullName),
		Address:  strings.TrimSpace(in.Address.Address),
		City:     strings.TrimSpace(in.Address.City),
		State:    strings.TrimSpace(in.Address.State),
		Zip:      strings.TrimSpace(in.Address.Zip),
		Country:  strings.TrimSpace(in.Address.Country),
	}
	if address.Country == "" {
		address.Country = defaultCountry
	}
	return CartSnapshot{Address: address, Lines: lines}, nil
}
