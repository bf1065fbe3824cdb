package sessiondata

import (
	"context"
	"fmt"
	"math"
	"strings"

	"git.handmade.network/hmn/tablelog/src/db"
	"git.handmade.network/hmn/tablelog/src/logging"
	"git.handmade.network/hmn/tablelog/src/models"
	"git.handmade.network/hmn/tablelog/src/oops"
	"git.handmade.network/hmn/tablelog/src/perf"
)

const (
	SortByID     = "id"
	SortByTitle  = "title"
	SortBySystem = "system"
	SortByDate   = "date"

	OrderAsc  = "asc"
	OrderDesc = "desc"

	DefaultSortBy = SortByDate
	DefaultOrder  = OrderDesc
	DefaultPage   = 1
	DefaultLimit  = 10
	MaxLimit      = 100
)

// Sorted, for error messages.
var (
	AllowedSortBy = []string{SortByDate, SortByID, SortBySystem, SortByTitle}
	AllowedOrders = []string{OrderAsc, OrderDesc}
)

var sortColumns = map[string]string{
	SortByID:     "id",
	SortByTitle:  "title",
	SortBySystem: "system",
	SortByDate:   "date",
}

// Parameters for listing sessions. An empty Q matches everything.
type SessionQuery struct {
	Q      string
	SortBy string
	Order  string
	Page   int
	Limit  int
}

func DefaultSessionQuery() SessionQuery {
	return SessionQuery{
		SortBy: DefaultSortBy,
		Order:  DefaultOrder,
		Page:   DefaultPage,
		Limit:  DefaultLimit,
	}
}

func (q SessionQuery) Validate() error {
	if _, ok := sortColumns[q.SortBy]; !ok {
		return NewArgumentError("sort_by", "sort_by must be one of %v", AllowedSortBy)
	}
	if q.Order != OrderAsc && q.Order != OrderDesc {
		return NewArgumentError("order", "order must be one of %v", AllowedOrders)
	}
	if q.Page < 1 {
		return NewArgumentError("page", "page must be an integer greater than or equal to 1")
	}
	if q.Limit < 1 || q.Limit > MaxLimit {
		return NewArgumentError("limit", "limit must be an integer between 1 and %d", MaxLimit)
	}
	return nil
}

// Saturates at math.MaxInt instead of overflowing on absurd pages.
func (q SessionQuery) Offset() int {
	if q.Limit < 1 || q.Page < 1 {
		return 0
	}
	if q.Page-1 > math.MaxInt/q.Limit {
		return math.MaxInt
	}
	return (q.Page - 1) * q.Limit
}

// Whether the page starts at or after the last of total matches.
func (q SessionQuery) PastEnd(total int) bool {
	return total <= 0 || q.Page > PageCount(total, q.Limit)
}

type SessionPage struct {
	Items []models.SessionRecord `json:"items"`
	Total int                    `json:"total"`
}

/*
Validates the query and fetches one page of matching sessions along with the
total number of matches. The count and the page are separate statements, so a
concurrent write can make them disagree slightly.
*/
func FetchSessionPage(ctx context.Context, store Store, q SessionQuery) (SessionPage, error) {
	b := perf.ExtractPerf(ctx).StartBlock("SESSIONS", "Fetch session page")
	defer b.End()

	if err := q.Validate(); err != nil {
		return SessionPage{}, err
	}

	total, err := store.CountSessions(ctx, q)
	if err != nil {
		return SessionPage{}, oops.New(err, "failed to count sessions")
	}

	items := []models.SessionRecord{}
	if !q.PastEnd(total) {
		items, err = store.ListSessions(ctx, q)
		if err != nil {
			return SessionPage{}, oops.New(err, "failed to list sessions")
		}
	}

	logging.ExtractLogger(ctx).Debug().
		Str("q", q.Q).
		Int("page", q.Page).
		Int("limit", q.Limit).
		Int("total", total).
		Int("items", len(items)).
		Msg("Fetched session page")

	return SessionPage{
		Items: items,
		Total: total,
	}, nil
}

// The bits of SQL that differ between the two stores.
type sqlDialect struct {
	Placeholders db.PlaceholderStyle
	Lower        string
}

var (
	postgresDialect = sqlDialect{Placeholders: db.DollarPlaceholders, Lower: "LOWER"}
	sqliteDialect   = sqlDialect{Placeholders: db.QuestionPlaceholders, Lower: db.SQLiteLowerFunc}
)

// Both sides go through the same lowercasing function, so case folding is
// whatever the database does for the column.
func buildSessionFilter(qb *db.QueryBuilder, d sqlDialect, q SessionQuery) {
	qb.Add(`WHERE TRUE`)
	if q.Q != "" {
		pattern := "%" + escapeLike(q.Q) + "%"
		qb.Add(
			fmt.Sprintf(
				`
				AND (
					%[1]s(title) LIKE %[1]s(CAST($? AS TEXT)) ESCAPE '\'
					OR %[1]s(system) LIKE %[1]s(CAST($? AS TEXT)) ESCAPE '\'
					OR %[1]s(players) LIKE %[1]s(CAST($? AS TEXT)) ESCAPE '\'
				)
				`,
				d.Lower,
			),
			pattern, pattern, pattern,
		)
	}
}

func buildCountQuery(d sqlDialect, q SessionQuery) *db.QueryBuilder {
	qb := &db.QueryBuilder{Placeholders: d.Placeholders}
	qb.Add(`---- Count sessions`)
	qb.Add(`SELECT COUNT(*) FROM session_record`)
	buildSessionFilter(qb, d, q)
	return qb
}

// Assumes q has been validated.
func buildListQuery(d sqlDialect, q SessionQuery) *db.QueryBuilder {
	qb := &db.QueryBuilder{Placeholders: d.Placeholders}
	qb.Add(`---- Fetch sessions`)
	qb.Add(`SELECT $columns FROM session_record`)
	buildSessionFilter(qb, d, q)

	column := sortColumns[q.SortBy]
	direction := "DESC"
	if q.Order == OrderAsc {
		direction = "ASC"
	}
	orderBy := fmt.Sprintf(`ORDER BY %s %s`, column, direction)
	if column != "id" {
		orderBy += `, id ASC`
	}
	qb.Add(orderBy)

	qb.Add(`LIMIT $? OFFSET $?`, q.Limit, q.Offset())
	return qb
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
