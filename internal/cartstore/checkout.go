package cartstore

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"

	"github.com/mythicmarket/market-backend/internal/order"
)

const (
	checkoutKey = "mythic_checkout"

	// encodingPrefix versions the blob. The encoding is reversible by
	// anyone who strips the prefix: it is obfuscation against casual
	// inspection, NOT a security boundary. Anything confidential must
	// use real authenticated encryption instead of this.
	encodingPrefix = "mmv1:"
)

var ErrBadEncoding = errors.New("unrecognized checkout encoding")

// CheckoutState is the customer's form progress: who they are, where to
// ship, how they pay, and the cart snapshot the selections apply to.
type CheckoutState struct {
	Customer      order.Customer `json:"customer"`
	Shipping      order.Shipping `json:"shipping"`
	PaymentMethod string         `json:"paymentMethod"`
	Items         []Item         `json:"items"`
}

// EncodeCheckout serializes the state into a single prefixed blob.
func EncodeCheckout(state CheckoutState) (string, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return "", err
	}
	return encodingPrefix + base64.StdEncoding.EncodeToString(raw), nil
}

// DecodeCheckout reverses EncodeCheckout, rejecting blobs without the
// expected version prefix.
func DecodeCheckout(blob string) (CheckoutState, error) {
	if !strings.HasPrefix(blob, encodingPrefix) {
		return CheckoutState{}, ErrBadEncoding
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(blob, encodingPrefix))
	if err != nil {
		return CheckoutState{}, ErrBadEncoding
	}
	var state CheckoutState
	if err := json.Unmarshal(raw, &state); err != nil {
		return CheckoutState{}, ErrBadEncoding
	}
	return state, nil
}

// SaveCheckout persists the encoded state under the fixed local key.
func SaveCheckout(storage Storage, state CheckoutState) error {
	blob, err := EncodeCheckout(state)
	if err != nil {
		return err
	}
	return storage.Set(checkoutKey, []byte(blob))
}

// LoadCheckout restores previously saved state; ok is false when none
// is stored.
func LoadCheckout(storage Storage) (state CheckoutState, ok bool, err error) {
	raw, ok, err := storage.Get(checkoutKey)
	if err != nil || !ok {
		return CheckoutState{}, false, err
	}
	state, err = DecodeCheckout(string(raw))
	if err != nil {
		return CheckoutState{}, false, err
	}
	return state, true, nil
}

// ClearCheckout drops the stored state after a completed submission.
func ClearCheckout(storage Storage) error {
	return storage.Delete(checkoutKey)
}

// ToOrder materializes an order from the checkout state. The order
// number and timestamp are filled by order.Normalize on the way out.
func (s CheckoutState) ToOrder() order.Order {
	items := make([]order.Item, 0, len(s.Items))
	for _, it := range s.Items {
		items = append(items, order.Item{
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
		})
	}
	return order.Normalize(order.Order{
		Customer: s.Customer,
		Shipping: s.Shipping,
		Payment:  order.Payment{Method: s.PaymentMethod},
		Items:    items,
	})
}
