// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

// Package gentest holds templates covering every kind of field, along with
// the handlers sqlnormgen generates for them, so that tests can run the
// generated handlers next to the reflective ones.
//
// Regenerate the handlers with:
//
//	go run github.com/canonical/sqlnorm/cmd/sqlnormgen -dir internal/gentest
package gentest

import (
	"database/sql"
	"net/url"
	"time"

	"github.com/golang-sql/civil"
	"github.com/shopspring/decimal"

	"github.com/canonical/sqlnorm"
)

// Level is a named integer type, bound and decoded as int16.
type Level int16

type ByID struct {
	ID int64 `db:"id"`
}

type Item struct {
	ID       int64               `db:"id"`
	Name     string              `db:"name"`
	Level    Level               `db:"level"`
	Rank     *Level              `db:"rank"`
	Weight   float32             `db:"weight"`
	Score    *float64            `db:"score"`
	Price    decimal.Decimal     `db:"price"`
	Discount decimal.NullDecimal `db:"discount"`
	Active   bool                `db:"active"`
	Added    civil.Date          `db:"added"`
	Opens    *civil.Time         `db:"opens"`
	Updated  time.Time           `db:"updated"`
	Timeout  time.Duration       `db:"timeout"`
	Home     url.URL             `db:"home"`
	Mirror   *url.URL            `db:"mirror"`
	Tags     []string            `db:"tags" sqltype:"text"`
	Sizes    []int32             `db:"sizes" sqltype:"integer"`
	Note     *string             `db:"note"`
	Data     []byte              `db:"data"`
	Label    sql.NullString      `db:"label"`
}

const (
	CreateItemsSQL = `CREATE TABLE item (id integer PRIMARY KEY, name text, level integer, rank integer, weight real, score real, price text, discount text, active boolean, added date, opens text, updated timestamp, timeout integer, home text, mirror text, tags text, sizes text, note text, data blob, label text)`
	InsertItemSQL  = `INSERT INTO item (id, name, level, rank, weight, score, price, discount, active, added, opens, updated, timeout, home, mirror, tags, sizes, note, data, label) VALUES (:id, :name, :level, :rank, :weight, :score, :price, :discount, :active, :added, :opens, :updated, :timeout, :home, :mirror, :tags, :sizes, :note, :data, :label)`
	AllItemsSQL    = `SELECT * FROM item ORDER BY id`
	ItemByIDSQL    = `SELECT * FROM item WHERE id = :id`
)

// Templates are the templates of the package. They all use generated
// handlers.
type Templates struct {
	CreateItems *sqlnorm.Template[sqlnorm.NoParams, sqlnorm.NoResult]
	InsertItem  *sqlnorm.Template[Item, sqlnorm.NoResult]
	AllItems    *sqlnorm.Template[sqlnorm.NoParams, Item]
	// ItemByID uses "$1" placeholders.
	ItemByID *sqlnorm.Template[ByID, Item]
}

// Prepare prepares the templates, failing if a handler is missing.
func Prepare() (*Templates, error) {
	createItems, err := sqlnorm.Prepare[sqlnorm.NoParams, sqlnorm.NoResult](CreateItemsSQL, sqlnorm.RequireGenerated())
	if err != nil {
		return nil, err
	}
	insertItem, err := sqlnorm.Prepare[Item, sqlnorm.NoResult](InsertItemSQL, sqlnorm.RequireGenerated())
	if err != nil {
		return nil, err
	}
	allItems, err := sqlnorm.Prepare[sqlnorm.NoParams, Item](AllItemsSQL, sqlnorm.RequireGenerated())
	if err != nil {
		return nil, err
	}
	itemByID, err := sqlnorm.Prepare[ByID, Item](ItemByIDSQL, sqlnorm.WithDialect(sqlnorm.Dollar), sqlnorm.RequireGenerated())
	if err != nil {
		return nil, err
	}
	return &Templates{
		CreateItems: createItems,
		InsertItem:  insertItem,
		AllItems:    allItems,
		ItemByID:    itemByID,
	}, nil
}
