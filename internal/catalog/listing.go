// Package catalog holds the agency's property listings. A Listing is
// composed of optional property details and optional transaction details
// instead of one type per property/transaction combination.
package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/realty/internal/common"
)

type Kind int

const (
	KindHouse Kind = iota + 1
	KindApartment
)

func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "house":
		return KindHouse, nil
	case "apartment":
		return KindApartment, nil
	default:
		return 0, fmt.Errorf("%w: unknown property kind %q", common.ErrValidation, s)
	}
}

func (k Kind) String() string {
	switch k {
	case KindHouse:
		return "house"
	case KindApartment:
		return "apartment"
	default:
		return "unknown"
	}
}

type Transaction int

const (
	TransactionPurchase Transaction = iota + 1
	TransactionRental
)

func ParseTransaction(s string) (Transaction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "purchase":
		return TransactionPurchase, nil
	case "rental":
		return TransactionRental, nil
	default:
		return 0, fmt.Errorf("%w: unknown transaction %q", common.ErrValidation, s)
	}
}

func (t Transaction) String() string {
	switch t {
	case TransactionPurchase:
		return "purchase"
	case TransactionRental:
		return "rental"
	default:
		return "unknown"
	}
}

// Closed option sets for the enumerated listing fields.
var (
	GarageOptions    = []string{"attached", "detached", "none"}
	FencedOptions    = []string{"yes", "no"}
	LaundryOptions   = []string{"coin", "ensuite", "none"}
	BalconyOptions   = []string{"yes", "no", "solarium"}
	FurnishedOptions = []string{"yes", "no"}
)

type House struct {
	Stories int
	Garage  string
	Fenced  string
}

type Apartment struct {
	Laundry string
	Balcony string
}

// PropertyDetails describes the property itself. Exactly one of House and
// Apartment is set.
type PropertyDetails struct {
	SquareFeet int
	Bedrooms   int
	Bathrooms  int
	House      *House
	Apartment  *Apartment
}

type Purchase struct {
	Price int64
	Taxes int64
}

type Rental struct {
	Rent      int64
	Utilities int64
	Furnished string
}

// TransactionDetails describes how the property is offered. Exactly one of
// Purchase and Rental is set.
type TransactionDetails struct {
	Purchase *Purchase
	Rental   *Rental
}

type Listing struct {
	ID          string
	Property    *PropertyDetails
	Transaction *TransactionDetails
}

// PropertyKind returns 0 when the property part is missing or ambiguous.
func (l *Listing) PropertyKind() Kind {
	if l.Property == nil {
		return 0
	}
	switch {
	case l.Property.House != nil && l.Property.Apartment == nil:
		return KindHouse
	case l.Property.Apartment != nil && l.Property.House == nil:
		return KindApartment
	default:
		return 0
	}
}

// TransactionKind returns 0 when the transaction part is missing or
// ambiguous.
func (l *Listing) TransactionKind() Transaction {
	if l.Transaction == nil {
		return 0
	}
	switch {
	case l.Transaction.Purchase != nil && l.Transaction.Rental == nil:
		return TransactionPurchase
	case l.Transaction.Rental != nil && l.Transaction.Purchase == nil:
		return TransactionRental
	default:
		return 0
	}
}

// Validate checks that both parts are present and unambiguous, counts are
// not negative and every enumerated field holds one of its options.
func (l *Listing) Validate() error {
	if l.PropertyKind() == 0 {
		return fmt.Errorf("%w: listing needs exactly one of house or apartment", common.ErrValidation)
	}
	if l.TransactionKind() == 0 {
		return fmt.Errorf("%w: listing needs exactly one of purchase or rental", common.ErrValidation)
	}

	p := l.Property
	if err := nonNegative("square_feet", int64(p.SquareFeet)); err != nil {
		return err
	}
	if err := nonNegative("beds", int64(p.Bedrooms)); err != nil {
		return err
	}
	if err := nonNegative("baths", int64(p.Bathrooms)); err != nil {
		return err
	}

	if h := p.House; h != nil {
		if err := nonNegative("stories", int64(h.Stories)); err != nil {
			return err
		}
		if err := oneOf("garage", h.Garage, GarageOptions); err != nil {
			return err
		}
		if err := oneOf("fenced", h.Fenced, FencedOptions); err != nil {
			return err
		}
	}
	if a := p.Apartment; a != nil {
		if err := oneOf("laundry", a.Laundry, LaundryOptions); err != nil {
			return err
		}
		if err := oneOf("balcony", a.Balcony, BalconyOptions); err != nil {
			return err
		}
	}

	t := l.Transaction
	if pu := t.Purchase; pu != nil {
		if err := nonNegative("price", pu.Price); err != nil {
			return err
		}
		if err := nonNegative("taxes", pu.Taxes); err != nil {
			return err
		}
	}
	if r := t.Rental; r != nil {
		if err := nonNegative("rent", r.Rent); err != nil {
			return err
		}
		if err := nonNegative("utilities", r.Utilities); err != nil {
			return err
		}
		if err := oneOf("furnished", r.Furnished, FurnishedOptions); err != nil {
			return err
		}
	}
	return nil
}

// Attributes flattens the listing into the searchable key/value form used
// by Catalog.Find. Keys absent for the listing's kind are omitted.
func (l *Listing) Attributes() map[string]string {
	attrs := make(map[string]string)

	if p := l.Property; p != nil {
		attrs["square_feet"] = strconv.Itoa(p.SquareFeet)
		attrs["beds"] = strconv.Itoa(p.Bedrooms)
		attrs["baths"] = strconv.Itoa(p.Bathrooms)
		if h := p.House; h != nil {
			attrs["stories"] = strconv.Itoa(h.Stories)
			attrs["garage"] = h.Garage
			attrs["fenced"] = h.Fenced
		}
		if a := p.Apartment; a != nil {
			attrs["laundry"] = a.Laundry
			attrs["balcony"] = a.Balcony
		}
	}

	if t := l.Transaction; t != nil {
		if pu := t.Purchase; pu != nil {
			attrs["price"] = strconv.FormatInt(pu.Price, 10)
			attrs["taxes"] = strconv.FormatInt(pu.Taxes, 10)
		}
		if r := t.Rental; r != nil {
			attrs["rent"] = strconv.FormatInt(r.Rent, 10)
			attrs["utilities"] = strconv.FormatInt(r.Utilities, 10)
			attrs["furnished"] = r.Furnished
		}
	}

	return attrs
}

// AttributeKeys lists every key Attributes can produce.
var AttributeKeys = []string{
	"square_feet", "beds", "baths",
	"stories", "garage", "fenced",
	"laundry", "balcony",
	"price", "taxes",
	"rent", "utilities", "furnished",
}

// ParseCriteria turns key=value pairs into search criteria for
// Catalog.Find. Keys must be attribute keys.
func ParseCriteria(pairs []string) (map[string]string, error) {
	criteria := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: criterion %q is not key=value", common.ErrValidation, pair)
		}
		if err := oneOf("criterion key", k, AttributeKeys); err != nil {
			return nil, err
		}
		criteria[k] = v
	}
	return criteria, nil
}

func nonNegative(field string, v int64) error {
	if v < 0 {
		return fmt.Errorf("%w: %s must not be negative", common.ErrValidation, field)
	}
	return nil
}

func oneOf(field, v string, options []string) error {
	for _, o := range options {
		if v == o {
			return nil
		}
	}
	return fmt.Errorf("%w: %s must be one of %s, got %q", common.ErrValidation, field, strings.Join(options, ", "), v)
}
