package listings

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/realty/internal/catalog"
	"github.com/dmitrijs2005/realty/internal/common"
	"github.com/dmitrijs2005/realty/internal/dbx"
)

// SQLRepository stores listings in one wide table. Columns that do not apply
// to a listing's kind or transaction hold zero values; kind and offer decide
// which ones are read back.
type SQLRepository struct {
	db      dbx.DBTX
	dialect dbx.Dialect
}

func NewPostgresRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, dialect: dbx.Postgres}
}

func NewSQLiteRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, dialect: dbx.SQLite}
}

// row is the flat column form of a listing.
type row struct {
	id                               string
	kind, offer                      string
	squareFeet, beds, baths, stories int
	garage, fenced, laundry, balcony string
	price, taxes, rent, utilities    int64
	furnished                        string
}

func toRow(l *catalog.Listing) row {
	r := row{id: l.ID, kind: l.PropertyKind().String(), offer: l.TransactionKind().String()}

	if p := l.Property; p != nil {
		r.squareFeet, r.beds, r.baths = p.SquareFeet, p.Bedrooms, p.Bathrooms
		if h := p.House; h != nil {
			r.stories, r.garage, r.fenced = h.Stories, h.Garage, h.Fenced
		}
		if a := p.Apartment; a != nil {
			r.laundry, r.balcony = a.Laundry, a.Balcony
		}
	}
	if t := l.Transaction; t != nil {
		if pu := t.Purchase; pu != nil {
			r.price, r.taxes = pu.Price, pu.Taxes
		}
		if rt := t.Rental; rt != nil {
			r.rent, r.utilities, r.furnished = rt.Rent, rt.Utilities, rt.Furnished
		}
	}
	return r
}

func (r row) listing() (catalog.Listing, error) {
	kind, err := catalog.ParseKind(r.kind)
	if err != nil {
		return catalog.Listing{}, fmt.Errorf("listing %s: %w", r.id, err)
	}
	offer, err := catalog.ParseTransaction(r.offer)
	if err != nil {
		return catalog.Listing{}, fmt.Errorf("listing %s: %w", r.id, err)
	}

	l := catalog.Listing{
		ID:          r.id,
		Property:    &catalog.PropertyDetails{SquareFeet: r.squareFeet, Bedrooms: r.beds, Bathrooms: r.baths},
		Transaction: &catalog.TransactionDetails{},
	}

	switch kind {
	case catalog.KindHouse:
		l.Property.House = &catalog.House{Stories: r.stories, Garage: r.garage, Fenced: r.fenced}
	case catalog.KindApartment:
		l.Property.Apartment = &catalog.Apartment{Laundry: r.laundry, Balcony: r.balcony}
	}

	switch offer {
	case catalog.TransactionPurchase:
		l.Transaction.Purchase = &catalog.Purchase{Price: r.price, Taxes: r.taxes}
	case catalog.TransactionRental:
		l.Transaction.Rental = &catalog.Rental{Rent: r.rent, Utilities: r.utilities, Furnished: r.furnished}
	}

	return l, nil
}

func (r *SQLRepository) Create(ctx context.Context, l *catalog.Listing) error {
	query :=
		`INSERT INTO listings (id, kind, offer, square_feet, beds, baths, stories, garage, fenced,
		                       laundry, balcony, price, taxes, rent, utilities, furnished, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		 ON CONFLICT (id) DO NOTHING`

	w := toRow(l)
	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(query),
		w.id, w.kind, w.offer, w.squareFeet, w.beds, w.baths, w.stories, w.garage, w.fenced,
		w.laundry, w.balcony, w.price, w.taxes, w.rent, w.utilities, w.furnished, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorConflict
	}
	return nil
}

func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM listings WHERE id = $1`

	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(query), id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLRepository) List(ctx context.Context) ([]catalog.Listing, error) {
	query :=
		`SELECT id, kind, offer, square_feet, beds, baths, stories, garage, fenced,
		        laundry, balcony, price, taxes, rent, utilities, furnished
		 FROM listings ORDER BY seq`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := make([]catalog.Listing, 0)
	for rows.Next() {
		var w row
		if err := rows.Scan(&w.id, &w.kind, &w.offer, &w.squareFeet, &w.beds, &w.baths, &w.stories,
			&w.garage, &w.fenced, &w.laundry, &w.balcony, &w.price, &w.taxes, &w.rent, &w.utilities,
			&w.furnished); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}

		l, err := w.listing()
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return out, nil
}
