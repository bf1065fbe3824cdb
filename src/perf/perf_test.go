package perf

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlocks(t *testing.T) {
	rp := MakeNewRequestPerf("GET /sessions", "GET", "/sessions")

	outer := rp.StartBlock("SQL", "Count sessions")
	inner := rp.StartBlock("SQL", "Fetch sessions")
	inner.End()
	outer.End()
	rp.StartBlock("JSON", "never ended")
	rp.EndRequest()

	if assert.Len(t, rp.Blocks, 3) {
		for _, b := range rp.Blocks {
			assert.False(t, b.End.IsZero(), "block %s was not closed", b.Description)
			assert.GreaterOrEqual(t, b.DurationMs(), 0.0)
		}
		assert.Equal(t, "Fetch sessions", rp.Blocks[1].Description)
	}
	assert.False(t, rp.End.Before(rp.Start))
}

func TestNilPerf(t *testing.T) {
	var rp *RequestPerf
	assert.NotPanics(t, func() {
		b := rp.StartBlock("SQL", "nothing")
		b.End()
		rp.EndRequest()
	})
	assert.Nil(t, ExtractPerf(context.Background()))
}

func TestContext(t *testing.T) {
	rp := MakeNewRequestPerf("", "GET", "/")
	ctx := context.WithValue(context.Background(), PerfContextKey, rp)
	assert.Same(t, rp, ExtractPerf(ctx))
}
