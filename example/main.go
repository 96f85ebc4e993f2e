// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

// Command example keeps a small inventory in an in-memory SQLite database.
// Its templates use the handlers in sqlnorm_handlers.go, written by:
//
//	go run github.com/canonical/sqlnorm/cmd/sqlnormgen -dir example
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/golang-sql/civil"
	"github.com/shopspring/decimal"

	_ "github.com/mattn/go-sqlite3"

	"github.com/canonical/sqlnorm"
)

type Item struct {
	ID    int64           `db:"id"`
	Name  string          `db:"name"`
	Price decimal.Decimal `db:"price"`
	Tags  []string        `db:"tags" sqltype:"text"`
	Added civil.Date      `db:"added"`
	Note  *string         `db:"note"`
}

type ByTag struct {
	Tag string `db:"tag"`
}

type Rename struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return err
	}
	defer db.Close()

	// Templates are prepared once package initialization has registered
	// the generated handlers.
	createItems := sqlnorm.MustPrepare[sqlnorm.NoParams, sqlnorm.NoResult](`CREATE TABLE item (id integer PRIMARY KEY, name text NOT NULL, price text NOT NULL, tags text, added date, note text)`)
	insertItem := sqlnorm.MustPrepare[Item, sqlnorm.NoResult](`INSERT INTO item (id, name, price, tags, added, note) VALUES (:id, :name, :price, :tags, :added, :note)`)
	itemsByTag := sqlnorm.MustPrepare[ByTag, Item](`SELECT id, name, price, tags, added, note FROM item WHERE tags LIKE '%' || :tag || '%' ORDER BY id`)
	renameItem := sqlnorm.MustPrepare[Rename, sqlnorm.NoResult](`UPDATE item SET name = :name WHERE id = :id`)

	if _, err := createItems.Exec(ctx, db, nil); err != nil {
		return err
	}

	fragile := "handle with care"
	items := []Item{
		{ID: 1, Name: "hammer", Price: decimal.RequireFromString("12.50"), Tags: []string{"tool", "metal"}, Added: civil.Date{Year: 2024, Month: 3, Day: 1}},
		{ID: 2, Name: "vase", Price: decimal.RequireFromString("40"), Tags: []string{"decor"}, Added: civil.Date{Year: 2024, Month: 3, Day: 2}, Note: &fragile},
		{ID: 3, Name: "wrench", Price: decimal.RequireFromString("9.99"), Tags: []string{"tool"}, Added: civil.Date{Year: 2024, Month: 3, Day: 5}},
	}
	for i := range items {
		if _, err := insertItem.Exec(ctx, db, &items[i]); err != nil {
			return err
		}
	}

	n, err := renameItem.Exec(ctx, db, &Rename{ID: 3, Name: "spanner"})
	if err != nil {
		return err
	}
	fmt.Printf("renamed %d item(s) using a %s handler\n", n, renameItem.Kind())

	rows, err := itemsByTag.Query(ctx, db, &ByTag{Tag: "tool"})
	if err != nil {
		return err
	}
	for item, err := range rows.All() {
		if err != nil {
			return err
		}
		fmt.Printf("%d %s %s [%s] added %s\n", item.ID, item.Name, item.Price, strings.Join(item.Tags, ", "), item.Added)
	}

	decor, err := itemsByTag.QueryOne(ctx, db, &ByTag{Tag: "decor"})
	if err != nil {
		return err
	}
	if decor.Note != nil {
		fmt.Printf("%s: %s\n", decor.Name, *decor.Note)
	}
	return nil
}
