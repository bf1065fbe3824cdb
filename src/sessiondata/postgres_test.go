package sessiondata

import (
	"context"
	"os"
	"testing"

	"git.handmade.network/hmn/tablelog/src/db"
	"github.com/stretchr/testify/require"
)

// Set TABLELOG_TEST_PG_DSN to a scratch database to run these. The
// session_record table is truncated before every subtest.
const testPostgresDSNVar = "TABLELOG_TEST_PG_DSN"

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv(testPostgresDSNVar)
	if dsn == "" {
		t.Skipf("%s not set", testPostgresDSNVar)
	}

	runStoreTests(t, func(t *testing.T) Store {
		ctx := context.Background()
		pool, err := db.NewConnPoolFromDSN(dsn)
		require.NoError(t, err)
		s, err := OpenPostgresStore(ctx, pool)
		require.NoError(t, err)
		t.Cleanup(s.Close)

		_, err = pool.Exec(ctx, `TRUNCATE session_record RESTART IDENTITY`)
		require.NoError(t, err)
		return s
	})
}
