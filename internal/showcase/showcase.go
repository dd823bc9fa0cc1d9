// Package showcase is the scripted shopping flow that demonstrates offers
// appearing at each moment and a conversion reported at the end.
package showcase

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/vedsharma/momentscli/internal/logger"
	"github.com/vedsharma/momentscli/internal/sdk"
	"go.uber.org/zap"
)

// Step is a stage of the flow
type Step string

const (
	StepBrowsing Step = "browsing"
	StepCart     Step = "cart"
	StepCheckout Step = "checkout"
	StepPayment  Step = "payment"
	StepSuccess  Step = "success"
)

// Steps lists the stages in order
var Steps = []Step{StepBrowsing, StepCart, StepCheckout, StepPayment, StepSuccess}

// Index returns the position of s in Steps, or -1
func (s Step) Index() int {
	for i, step := range Steps {
		if step == s {
			return i
		}
	}
	return -1
}

var (
	ErrUnknownProduct = errors.New("unknown product")
	ErrFinished       = errors.New("flow already finished")
)

// OfferType controls how an offer affects the order summary
type OfferType string

const (
	OfferDiscount     OfferType = "discount"
	OfferFreeShipping OfferType = "freeShipping"
	OfferBundle       OfferType = "bundle"
	OfferCashback     OfferType = "cashback"
)

// DiscountRate applies when a discount offer is showing
const DiscountRate = 0.15

type Product struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	OriginalPrice float64 `json:"originalPrice,omitempty"`
	Image         string  `json:"image"`
	Rating        float64 `json:"rating"`
	Reviews       int     `json:"reviews"`
}

type Offer struct {
	ID          string    `json:"id"`
	Type        OfferType `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Value       string    `json:"value"`
	Trigger     Step      `json:"trigger"`
}

// Customer is the checkout and payment form
type Customer struct {
	Email      string `json:"email"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Address    string `json:"address"`
	City       string `json:"city"`
	ZipCode    string `json:"zipCode"`
	CardNumber string `json:"cardNumber"`
	Expiry     string `json:"expiry"`
	CVV        string `json:"cvv"`
}

// Picker chooses one offer among the candidates for a step
type Picker func(candidates []Offer) Offer

// RandomPicker picks uniformly
func RandomPicker(candidates []Offer) Offer {
	return candidates[rand.IntN(len(candidates))]
}

// FirstPicker always picks the first candidate
func FirstPicker(candidates []Offer) Offer {
	return candidates[0]
}

// Flow is the showcase state machine. It is not safe for concurrent use.
type Flow struct {
	products []Product
	offers   []Offer
	pick     Picker
	adapter  sdk.Adapter

	step     Step
	cart     []Product
	offer    *Offer
	customer Customer
	order    *Order
}

// Order is the conversion reported when the flow completes
type Order struct {
	ID       string     `json:"orderId"`
	Value    float64    `json:"orderValue"`
	Currency string     `json:"currency"`
	Savings  float64    `json:"savings"`
	Items    []sdk.Item `json:"items"`
}

// Option configures a Flow
type Option func(*Flow)

// WithPicker replaces the random offer choice
func WithPicker(p Picker) Option {
	return func(f *Flow) { f.pick = p }
}

// WithAdapter reports the conversion through a
func WithAdapter(a sdk.Adapter) Option {
	return func(f *Flow) { f.adapter = a }
}

// WithCatalog replaces the demo products and offers
func WithCatalog(products []Product, offers []Offer) Option {
	return func(f *Flow) {
		f.products = products
		f.offers = offers
	}
}

// New creates a flow at the browsing step
func New(opts ...Option) *Flow {
	f := &Flow{
		products: Products(),
		offers:   Offers(),
		pick:     RandomPicker,
		step:     StepBrowsing,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Flow) Step() Step {
	return f.step
}

func (f *Flow) Products() []Product {
	return append([]Product(nil), f.products...)
}

func (f *Flow) Cart() []Product {
	return append([]Product(nil), f.cart...)
}

func (f *Flow) Customer() Customer {
	return f.customer
}

// SetCustomer replaces the checkout form
func (f *Flow) SetCustomer(c Customer) {
	f.customer = c
}

// Order is set once the flow reaches success
func (f *Flow) Order() *Order {
	return f.order
}

// Offer returns the offer currently showing, if any
func (f *Flow) Offer() (Offer, bool) {
	if f.offer == nil {
		return Offer{}, false
	}
	return *f.offer, true
}

// AddToCart adds a product. Adding while browsing moves to the cart.
func (f *Flow) AddToCart(productID string) error {
	if f.step == StepSuccess {
		return ErrFinished
	}
	p, ok := f.product(productID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProduct, productID)
	}
	f.cart = append(f.cart, p)
	if f.step == StepBrowsing {
		f.step = StepCart
	}
	f.trigger()
	return nil
}

// RemoveFromCart drops every cart line for productID
func (f *Flow) RemoveFromCart(productID string) {
	kept := f.cart[:0]
	for _, p := range f.cart {
		if p.ID != productID {
			kept = append(kept, p)
		}
	}
	f.cart = kept
}

// Next advances one step and clears the showing offer. Reaching success
// reports the conversion.
func (f *Flow) Next() error {
	i := f.step.Index()
	if i >= len(Steps)-1 {
		return ErrFinished
	}

	f.step = Steps[i+1]
	savings := f.Savings()
	f.offer = nil

	if f.step == StepSuccess {
		return f.complete(savings)
	}
	f.trigger()
	return nil
}

// Reset returns to browsing with an empty cart and form
func (f *Flow) Reset() {
	f.step = StepBrowsing
	f.cart = nil
	f.offer = nil
	f.customer = Customer{}
	f.order = nil
}

// Total is the cart subtotal
func (f *Flow) Total() float64 {
	var sum float64
	for _, p := range f.cart {
		sum += p.Price
	}
	return round2(sum)
}

// Savings is the discount granted by the showing offer
func (f *Flow) Savings() float64 {
	if f.offer != nil && f.offer.Type == OfferDiscount {
		return round2(f.Total() * DiscountRate)
	}
	return 0
}

// FreeShipping reports whether a free shipping offer is showing
func (f *Flow) FreeShipping() bool {
	return f.offer != nil && f.offer.Type == OfferFreeShipping
}

// trigger shows an offer for the current step when none is showing. The cart
// only triggers once it holds items.
func (f *Flow) trigger() {
	if f.offer != nil {
		return
	}
	switch f.step {
	case StepCart:
		if len(f.cart) == 0 {
			return
		}
	case StepCheckout, StepPayment:
	default:
		return
	}

	var candidates []Offer
	for _, o := range f.offers {
		if o.Trigger == f.step {
			candidates = append(candidates, o)
		}
	}
	if len(candidates) == 0 {
		return
	}
	o := f.pick(candidates)
	f.offer = &o
	logger.Debug("offer triggered", zap.String("step", string(f.step)), zap.String("offer", o.ID))
}

func (f *Flow) complete(savings float64) error {
	items := make([]sdk.Item, 0, len(f.cart))
	for _, p := range f.cart {
		items = append(items, sdk.Item{ProductID: p.ID, ProductName: p.Name, Price: p.Price, Quantity: 1})
	}
	f.order = &Order{
		ID:       uuid.New().String()[:8],
		Value:    round2(f.Total() - savings),
		Currency: "USD",
		Savings:  savings,
		Items:    items,
	}

	if f.adapter == nil {
		return nil
	}
	event := sdk.UserData{
		"orderId":    f.order.ID,
		"orderValue": f.order.Value,
		"currency":   f.order.Currency,
		"items":      f.order.Items,
	}
	if f.customer.Email != "" {
		event["email"] = f.customer.Email
	}
	if f.customer.FirstName != "" {
		event["firstName"] = f.customer.FirstName
	}
	if f.customer.LastName != "" {
		event["lastName"] = f.customer.LastName
	}
	if err := f.adapter.ReportConversion(event); err != nil {
		return fmt.Errorf("report conversion: %w", err)
	}
	logger.Info("conversion reported", zap.String("order", f.order.ID), zap.Float64("value", f.order.Value))
	return nil
}

func (f *Flow) product(id string) (Product, bool) {
	for _, p := range f.products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
