package sessiondata

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"git.handmade.network/hmn/tablelog/src/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs the same behavioral tests against any Store. newStore must return an
// empty store.
func runStoreTests(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	create := func(t *testing.T, s Store, title, system, players string, date *time.Time) *models.SessionRecord {
		t.Helper()
		record, err := s.CreateSession(ctx, models.SessionCreate{
			Title:   title,
			System:  system,
			Players: players,
			Date:    date,
		})
		require.NoError(t, err)
		return record
	}
	at := func(day int) *time.Time {
		d := time.Date(2024, time.March, day, 19, 30, 0, 0, time.UTC)
		return &d
	}
	strptr := func(s string) *string { return &s }

	t.Run("create and get round trip", func(t *testing.T) {
		s := newStore(t)
		before := time.Now().Add(-time.Minute)
		created := create(t, s, "T", "S", "P", nil)
		after := time.Now().Add(time.Minute)

		assert.NotZero(t, created.ID)
		assert.Equal(t, "T", created.Title)
		assert.Equal(t, "S", created.System)
		assert.Equal(t, "P", created.Players)
		assert.True(t, created.Date.After(before) && created.Date.Before(after), "date %v should default to about now", created.Date)
		assert.Equal(t, time.UTC, created.Date.Location())

		fetched, err := s.GetSession(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, fetched.ID)
		assert.Equal(t, "T", fetched.Title)
		assert.Equal(t, "S", fetched.System)
		assert.Equal(t, "P", fetched.Players)
		assert.True(t, created.Date.Equal(fetched.Date))
	})

	t.Run("supplied date is kept", func(t *testing.T) {
		s := newStore(t)
		tokyo := time.FixedZone("JST", 9*60*60)
		date := time.Date(2023, time.December, 24, 20, 0, 0, 0, tokyo)
		created := create(t, s, "Winter one-shot", "Mothership", "Ann, Bo", &date)
		assert.True(t, date.Equal(created.Date), "expected %v, got %v", date, created.Date)
	})

	t.Run("ids are unique and stable", func(t *testing.T) {
		s := newStore(t)
		seen := map[int]bool{}
		var ids []int
		for i := 0; i < 5; i++ {
			r := create(t, s, fmt.Sprintf("Session %d", i), "D&D 5e", "table", nil)
			assert.False(t, seen[r.ID], "duplicate id %d", r.ID)
			seen[r.ID] = true
			ids = append(ids, r.ID)
		}
		for i, id := range ids {
			r, err := s.GetSession(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, fmt.Sprintf("Session %d", i), r.Title)
		}
	})

	t.Run("get missing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetSession(ctx, 424242)
		assert.True(t, errors.Is(err, NotFound))
	})

	t.Run("partial update", func(t *testing.T) {
		s := newStore(t)
		created := create(t, s, "T", "S", "P", at(1))

		updated, err := s.UpdateSession(ctx, created.ID, models.SessionPatch{Title: strptr("T2")})
		require.NoError(t, err)
		assert.Equal(t, created.ID, updated.ID)
		assert.Equal(t, "T2", updated.Title)
		assert.Equal(t, "S", updated.System)
		assert.Equal(t, "P", updated.Players)
		assert.True(t, created.Date.Equal(updated.Date))

		updated, err = s.UpdateSession(ctx, created.ID, models.SessionPatch{Players: strptr("P2"), Date: at(2)})
		require.NoError(t, err)
		assert.Equal(t, "T2", updated.Title)
		assert.Equal(t, "P2", updated.Players)
		assert.True(t, at(2).Equal(updated.Date))

		fetched, err := s.GetSession(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, *updated, *fetched)
	})

	t.Run("empty patch returns the record unchanged", func(t *testing.T) {
		s := newStore(t)
		created := create(t, s, "T", "S", "P", at(1))
		updated, err := s.UpdateSession(ctx, created.ID, models.SessionPatch{})
		require.NoError(t, err)
		assert.Equal(t, *created, *updated)
	})

	t.Run("update missing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.UpdateSession(ctx, 424242, models.SessionPatch{Title: strptr("x")})
		assert.True(t, errors.Is(err, NotFound))
	})

	t.Run("validation", func(t *testing.T) {
		s := newStore(t)
		_, err := s.CreateSession(ctx, models.SessionCreate{Title: " ", System: "S", Players: "P"})
		var vErr *ValidationError
		if assert.True(t, errors.As(err, &vErr)) {
			assert.Equal(t, "title", vErr.Field)
		}

		created := create(t, s, "T", "S", "P", nil)
		_, err = s.UpdateSession(ctx, created.ID, models.SessionPatch{System: strptr("")})
		if assert.True(t, errors.As(err, &vErr)) {
			assert.Equal(t, "system", vErr.Field)
		}
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		doomed := create(t, s, "T", "S", "P", nil)
		require.NoError(t, s.DeleteSession(ctx, doomed.ID))

		_, err := s.GetSession(ctx, doomed.ID)
		assert.True(t, errors.Is(err, NotFound))
		_, err = s.UpdateSession(ctx, doomed.ID, models.SessionPatch{Title: strptr("x")})
		assert.True(t, errors.Is(err, NotFound))
		assert.True(t, errors.Is(s.DeleteSession(ctx, doomed.ID), NotFound))

		next := create(t, s, "T", "S", "P", nil)
		assert.NotEqual(t, doomed.ID, next.ID)
		assert.Greater(t, next.ID, doomed.ID)
	})

	t.Run("search", func(t *testing.T) {
		s := newStore(t)
		heist := create(t, s, "Dragon Heist", "D&D 5e", "Ann, Bo", at(1))
		age := create(t, s, "Kirkwall nights", "Dragon Age", "Cy", at(2))
		create(t, s, "Something else", "Blades in the Dark", "no match", at(3))

		q := DefaultSessionQuery()
		q.Q = "Dragon"
		page, err := FetchSessionPage(ctx, s, q)
		require.NoError(t, err)
		assert.Equal(t, 2, page.Total)
		if assert.Len(t, page.Items, 2) {
			// default order is date desc
			assert.Equal(t, age.ID, page.Items[0].ID)
			assert.Equal(t, heist.ID, page.Items[1].ID)
		}

		q.Q = "dRaGoN"
		page, err = FetchSessionPage(ctx, s, q)
		require.NoError(t, err)
		assert.Equal(t, 2, page.Total)

		q.Q = "ann"
		page, err = FetchSessionPage(ctx, s, q)
		require.NoError(t, err)
		assert.Equal(t, 1, page.Total)

		q.Q = ""
		page, err = FetchSessionPage(ctx, s, q)
		require.NoError(t, err)
		assert.Equal(t, 3, page.Total)
	})

	t.Run("search wildcards are literal", func(t *testing.T) {
		s := newStore(t)
		create(t, s, "100% dice", "FATE", "x", nil)
		create(t, s, "1000 dice", "FATE", "x", nil)
		create(t, s, "snake_case", "FATE", "x", nil)

		q := DefaultSessionQuery()
		q.Q = "%"
		page, err := FetchSessionPage(ctx, s, q)
		require.NoError(t, err)
		assert.Equal(t, 1, page.Total)

		q.Q = "_"
		page, err = FetchSessionPage(ctx, s, q)
		require.NoError(t, err)
		assert.Equal(t, 1, page.Total)
	})

	t.Run("search folds non-ASCII case", func(t *testing.T) {
		s := newStore(t)
		eclipse := create(t, s, "Éclipse Phase", "Eclipse Phase 2e", "Zoë, Søren", nil)
		create(t, s, "Ärger im Dorf", "DSA", "Jörg", nil)
		create(t, s, "Plain", "Plain", "plain", nil)

		items := []struct {
			q     string
			total int
		}{
			{"Éclipse", 1},
			{"éclipse", 1},
			{"ÉCLIPSE PHASE", 1},
			{"Ärger", 1},
			{"ärger", 1},
			{"ÄRGER", 1},
			{"zoë", 1},
			{"SØREN", 1},
			{"JÖRG", 1},
			{"a", 3},
		}
		for _, item := range items {
			q := DefaultSessionQuery()
			q.Q = item.q
			page, err := FetchSessionPage(ctx, s, q)
			require.NoError(t, err)
			assert.Equal(t, item.total, page.Total, "q=%s", item.q)
			assert.Len(t, page.Items, item.total, "q=%s", item.q)
		}

		q := DefaultSessionQuery()
		q.Q = "ÉCLIPSE"
		page, err := FetchSessionPage(ctx, s, q)
		require.NoError(t, err)
		if assert.Len(t, page.Items, 1) {
			assert.Equal(t, eclipse.ID, page.Items[0].ID)
			assert.Equal(t, "Éclipse Phase", page.Items[0].Title, "stored text keeps its case")
		}
	})

	t.Run("huge page is past the end", func(t *testing.T) {
		s := newStore(t)
		for i := 1; i <= 3; i++ {
			create(t, s, fmt.Sprintf("Oneshot %d", i), "Mothership", "x", at(i))
		}

		q := DefaultSessionQuery()
		q.Limit = 100
		q.Page = 92233720368547760
		page, err := FetchSessionPage(ctx, s, q)
		require.NoError(t, err)
		assert.Equal(t, 3, page.Total)
		assert.NotNil(t, page.Items)
		assert.Empty(t, page.Items)

		q.Limit = 1
		q.Page = math.MaxInt
		items, err := s.ListSessions(ctx, q)
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("pagination", func(t *testing.T) {
		s := newStore(t)
		for i := 1; i <= 15; i++ {
			create(t, s, fmt.Sprintf("Campaign %02d", i), "Pathfinder", "group", at(i))
		}

		q := DefaultSessionQuery()
		q.Limit = 10
		q.Page = 2
		page, err := FetchSessionPage(ctx, s, q)
		require.NoError(t, err)
		assert.Equal(t, 15, page.Total)
		if assert.Len(t, page.Items, 5) {
			// date desc: page 2 holds the five oldest
			assert.Equal(t, "Campaign 05", page.Items[0].Title)
			assert.Equal(t, "Campaign 01", page.Items[4].Title)
		}

		q.Page = 3
		page, err = FetchSessionPage(ctx, s, q)
		require.NoError(t, err)
		assert.Equal(t, 15, page.Total)
		assert.NotNil(t, page.Items)
		assert.Empty(t, page.Items)
	})

	t.Run("sorting", func(t *testing.T) {
		s := newStore(t)
		b := create(t, s, "Bravo", "Cthulhu", "x", at(2))
		a := create(t, s, "Alpha", "Traveller", "x", at(3))
		c := create(t, s, "Charlie", "Apocalypse World", "x", at(1))

		ids := func(q SessionQuery) []int {
			page, err := FetchSessionPage(ctx, s, q)
			require.NoError(t, err)
			var result []int
			for _, item := range page.Items {
				result = append(result, item.ID)
			}
			return result
		}

		q := DefaultSessionQuery()
		assert.Equal(t, []int{a.ID, b.ID, c.ID}, ids(q), "default is most recent first")

		q.Order = OrderAsc
		assert.Equal(t, []int{c.ID, b.ID, a.ID}, ids(q))

		q.SortBy = SortByTitle
		assert.Equal(t, []int{a.ID, b.ID, c.ID}, ids(q))

		q.SortBy = SortBySystem
		assert.Equal(t, []int{c.ID, b.ID, a.ID}, ids(q))

		q.SortBy = SortByID
		q.Order = OrderDesc
		assert.Equal(t, []int{c.ID, a.ID, b.ID}, ids(q))
	})

	t.Run("ties break by id", func(t *testing.T) {
		s := newStore(t)
		first := create(t, s, "Same", "Same", "x", at(5))
		second := create(t, s, "Same", "Same", "x", at(5))
		third := create(t, s, "Same", "Same", "x", at(5))

		for _, sortBy := range []string{SortByDate, SortByTitle, SortBySystem} {
			for _, order := range AllowedOrders {
				q := DefaultSessionQuery()
				q.SortBy = sortBy
				q.Order = order
				page, err := FetchSessionPage(ctx, s, q)
				require.NoError(t, err)
				if assert.Len(t, page.Items, 3) {
					assert.Equal(t, first.ID, page.Items[0].ID, "%s %s", sortBy, order)
					assert.Equal(t, second.ID, page.Items[1].ID, "%s %s", sortBy, order)
					assert.Equal(t, third.ID, page.Items[2].ID, "%s %s", sortBy, order)
				}
			}
		}
	})

	t.Run("invalid query", func(t *testing.T) {
		s := newStore(t)
		q := DefaultSessionQuery()
		q.SortBy = "foo"
		_, err := FetchSessionPage(ctx, s, q)
		var argErr *ArgumentError
		if assert.True(t, errors.As(err, &argErr)) {
			assert.Equal(t, "sort_by", argErr.Param)
		}

		q = DefaultSessionQuery()
		q.Order = "up"
		_, err = FetchSessionPage(ctx, s, q)
		if assert.True(t, errors.As(err, &argErr)) {
			assert.Equal(t, "order", argErr.Param)
		}
	})
}
