/*
This package contains lowish-level APIs for making database queries. The main target is Postgres through pgx; it streamlines the process of mapping query results to Go types, while allowing you to write arbitrary SQL queries. SQLite is supported for local development and tests through OpenSQLite, with QueryBuilder shared between the two.

The primary functions are Query, QueryOne, and QueryOneScalar.

# Query syntax

Arguments can be provided using placeholders like $1, $2, etc. All arguments will be safely escaped and mapped from their Go type to the correct Postgres type. (This is a direct proxy to pgx.)

	count, err := db.QueryOneScalar[int](ctx, conn,
		`
		SELECT COUNT(*)
		FROM session_record
		WHERE
			id = ANY($1)
		`,
		[]int{1, 2, 3},
	)

To query multiple columns at once, you may use a struct type with `db:"column_name"` tags, and the special $columns placeholder:

	type SessionRecord struct {
		ID    int       `db:"id"`
		Title string    `db:"title"`
		Date  time.Time `db:"date"`
	}
	records, err := db.Query[SessionRecord](ctx, conn, `SELECT $columns FROM session_record`)
	// Resulting query:
	// SELECT id, title, date FROM session_record

A table name prefix can be included in the placeholder like $columns{prefix}:

	records, err := db.Query[SessionRecord](ctx, conn, `SELECT $columns{s} FROM session_record AS s`)
	// Resulting query:
	// SELECT s.id, s.title, s.date FROM session_record AS s

# Building queries

QueryBuilder assembles a query from chunks, numbering `$?` placeholders as it goes:

	var qb db.QueryBuilder
	qb.Add(`SELECT $columns FROM session_record WHERE TRUE`)
	if term != "" {
		qb.Add(`AND title = $?`, term)
	}
	qb.Add(`LIMIT $? OFFSET $?`, limit, offset)

Set Placeholders to QuestionPlaceholders to build the same query for SQLite.

# Naming queries

Start a query with a line like `---- Fetch sessions` and the name will be used in request perf logs.
*/
package db
