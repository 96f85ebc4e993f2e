/*
Package sqlnorm runs SQL statements written with named placeholders, binding
them to the fields of a Go struct and decoding the rows they return into new
values of another struct.

# Basics

A template is plain SQL in which parameters are written as ":name":

	type ByAge struct {
		Min int32
		Max int32
	}

	type Person struct {
		ID   int64 `db:"id"`
		Name string
		Age  *int32
	}

	byAge, err := sqlnorm.Prepare[ByAge, Person](
		`SELECT id, name, age FROM person WHERE age BETWEEN :min AND :max`)
	if err != nil {
		return err
	}

Prepare parses the template, replaces each placeholder with a positional one
and checks that every placeholder names a field of the parameter struct. The
name of a field is its `db` tag or, without one, its Go name with the first
letter lowered. Fields tagged `db:"-"` are ignored. A parameter field that no
placeholder refers to is reported as a warning.

The template is then run on a *sql.DB, *sql.Conn or *sql.Tx:

	rows, err := byAge.Query(ctx, db, &ByAge{Min: 18, Max: 65})
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		p := rows.Record()
		...
	}
	if err := rows.Err(); err != nil {
		return err
	}

Each row is decoded into a new Person, reading every field from the column of
the same name. [WithResultFactory] sets how the new records are made; fields
without a column keep the value the factory gave them. Statements that return
no rows use [NoResult] as the result type and are run with [Template.Exec].

# Syntax

Placeholder names start with a letter followed by letters and digits. A
placeholder may appear several times and is bound once per occurrence.
Placeholders inside string literals, quoted identifiers and comments are
left alone, and "::" is a cast. LIMIT and OFFSET operands may be
placeholders, including the "LIMIT offset, count" form.

# Types

Fields may have the following types, or pointers to them for nullable
columns:

	int32, int64, int, int16   integer, bigint, smallint
	float32, float64           real, double precision
	decimal.Decimal            numeric
	string, bool               text, boolean
	civil.Date, civil.Time     date, time
	time.Time                  timestamp
	url.URL                    text holding a URL
	[]T                        array, with a `sqltype:"integer"` tag naming the element type

Values implementing driver.Valuer and sql.Scanner, []byte and interface
fields are passed to the driver as they are.

# Generated handlers

The sqlnormgen command writes, for every template of a package, a handler
that binds and decodes without reflection and registers it from an init
function. Prepare uses the registered handler when there is one for the
template text, its record types, the package preparing it and the placeholder
style it is prepared with. The [RequireGenerated] option turns a missing
handler into an error.

Handlers are registered during package initialization, so templates held in
package-level variables are prepared before their handlers exist and fall
back to reflection. Prepare them from functions instead.
*/
package sqlnorm
