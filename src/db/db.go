package db

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

/*
A general error to be used when no results are found. This is the error returned
by QueryOne, and can generally be used by other database helpers that fetch a single
result but find nothing.
*/
var NotFound = errors.New("not found")

/*
Performs a SQL query and returns a slice of all the result rows. The query is just plain SQL, but make sure to read the package documentation for details. You must explicitly provide the type argument - this is how it knows what Go type to map the results to, and it cannot be inferred.

Any SQL query may be performed, including INSERT and UPDATE - as long as it returns a result set, you can use this. If the query does not return a result set, or you simply do not care about the result set, call Exec directly on your pgx connection.

This function always returns pointers to the values. This is convenient for structs, but for a single primitive value, you may wish to use QueryOneScalar.
*/
func Query[T any](
	ctx context.Context,
	conn ConnOrTx,
	query string,
	args ...any,
) ([]*T, error) {
	rows, err := conn.Query(ctx, compileQuery[T](query), args...)
	if err != nil {
		return nil, err
	}

	if isStructDest[T]() {
		return pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[T])
	}
	return pgx.CollectRows(rows, pgx.RowToAddrOf[T])
}

/*
Identical to Query, but returns only the first result row. If there are no
rows in the result set, returns NotFound.
*/
func QueryOne[T any](
	ctx context.Context,
	conn ConnOrTx,
	query string,
	args ...any,
) (*T, error) {
	rows, err := conn.Query(ctx, compileQuery[T](query), args...)
	if err != nil {
		return nil, err
	}

	var result *T
	if isStructDest[T]() {
		result, err = pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[T])
	} else {
		result, err = pgx.CollectOneRow(rows, pgx.RowToAddrOf[T])
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound
	}
	return result, err
}

/*
Identical to QueryOne, but returns a concrete value instead of a pointer. More
convenient for primitive types. If there are no rows in the result set, returns
NotFound.
*/
func QueryOneScalar[T any](
	ctx context.Context,
	conn ConnOrTx,
	query string,
	args ...any,
) (T, error) {
	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		var zero T
		return zero, err
	}

	result, err := pgx.CollectOneRow(rows, pgx.RowTo[T])
	if errors.Is(err, pgx.ErrNoRows) {
		return result, NotFound
	}
	return result, err
}

var reColumnsPlaceholder = regexp.MustCompile(`\$columns({(.*?)})?`)

func compileQuery[T any](query string) string {
	var destExample T
	return CompileColumns(query, reflect.TypeOf(destExample))
}

/*
Replaces the $columns placeholder in a query with the `db`-tagged fields of
destType, optionally prefixed with a table name via $columns{prefix}. Queries
without the placeholder are returned unchanged.
*/
func CompileColumns(query string, destType reflect.Type) string {
	columnsMatch := reColumnsPlaceholder.FindStringSubmatch(query)
	if columnsMatch == nil {
		return query
	}

	// The presence of the $columns placeholder means that the destination type
	// must be a struct, and we will plonk that struct's fields into the query.
	if destType == nil || destType.Kind() != reflect.Struct {
		panic("$columns can only be used when querying into a struct")
	}

	prefix := columnsMatch[2]
	columns := ColumnNames(destType)
	for i, name := range columns {
		if prefix != "" {
			columns[i] = prefix + "." + name
		}
	}

	return reColumnsPlaceholder.ReplaceAllLiteralString(query, strings.Join(columns, ", "))
}

// Returns the `db` tag of every tagged field in the struct type, in field
// order.
func ColumnNames(destType reflect.Type) []string {
	if destType.Kind() == reflect.Ptr {
		destType = destType.Elem()
	}
	if destType.Kind() != reflect.Struct {
		panic(fmt.Errorf("can only get column names from a struct, got type '%v'", destType))
	}

	var names []string
	for _, field := range reflect.VisibleFields(destType) {
		if columnName := field.Tag.Get("db"); columnName != "" && columnName != "-" {
			names = append(names, columnName)
		}
	}
	return names
}

var timeType = reflect.TypeOf(time.Time{})

func isStructDest[T any]() bool {
	var destExample T
	t := reflect.TypeOf(destExample)
	return t != nil && t.Kind() == reflect.Struct && t != timeType
}
