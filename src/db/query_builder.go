package db

import (
	"fmt"
	"strings"
)

type PlaceholderStyle int

const (
	DollarPlaceholders   PlaceholderStyle = iota // $1, $2, ... (Postgres)
	QuestionPlaceholders                         // ?, ?, ... (SQLite)
)

type QueryBuilder struct {
	Placeholders PlaceholderStyle

	sql  strings.Builder
	args []interface{}
}

/*
Adds the given SQL and arguments to the query. Any occurrences
of `$?` will be replaced with the correct argument number.

foo $? bar $? baz $?
foo ARG1 bar ARG2 baz $?
foo ARG1 bar ARG2 baz ARG3

With QuestionPlaceholders, each `$?` simply becomes `?`.
*/
func (qb *QueryBuilder) Add(sql string, args ...interface{}) {
	numPlaceholders := strings.Count(sql, "$?")
	if numPlaceholders != len(args) {
		panic(fmt.Errorf("cannot add chunk to query; expected %d arguments but got %d", numPlaceholders, len(args)))
	}

	for _, arg := range args {
		placeholder := "?"
		if qb.Placeholders == DollarPlaceholders {
			placeholder = fmt.Sprintf("$%d", len(qb.args)+1)
		}
		sql = strings.Replace(sql, "$?", placeholder, 1)
		qb.args = append(qb.args, arg)
	}

	qb.sql.WriteString(sql)
	qb.sql.WriteString("\n")
}

func (qb *QueryBuilder) String() string {
	return qb.sql.String()
}

func (qb *QueryBuilder) Args() []interface{} {
	return qb.args
}
