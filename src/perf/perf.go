package perf

import (
	"context"
	"sync"
	"time"
)

// RequestPerf records timed blocks for a single request. All methods are
// safe to call on a nil *RequestPerf, so code outside of a request (CLI
// commands, tests) does not need to care whether perf is being tracked.
type RequestPerf struct {
	Route  string
	Path   string // the path actually matched
	Method string
	Start  time.Time
	End    time.Time
	Blocks []PerfBlock

	mu sync.Mutex
}

func MakeNewRequestPerf(route string, method string, path string) *RequestPerf {
	return &RequestPerf{
		Start:  time.Now(),
		Route:  route,
		Path:   path,
		Method: method,
	}
}

func (rp *RequestPerf) EndRequest() {
	if rp == nil {
		return
	}
	rp.mu.Lock()
	defer rp.mu.Unlock()

	now := time.Now()
	for i := range rp.Blocks {
		if rp.Blocks[i].End.IsZero() {
			rp.Blocks[i].End = now
		}
	}
	rp.End = now
}

type BlockHandle struct {
	rp  *RequestPerf
	idx int
}

func (rp *RequestPerf) StartBlock(category, description string) *BlockHandle {
	if rp == nil {
		return nil
	}
	rp.mu.Lock()
	defer rp.mu.Unlock()

	rp.Blocks = append(rp.Blocks, PerfBlock{
		Start:       time.Now(),
		Category:    category,
		Description: description,
	})
	return &BlockHandle{rp: rp, idx: len(rp.Blocks) - 1}
}

func (b *BlockHandle) End() {
	if b == nil {
		return
	}
	b.rp.mu.Lock()
	defer b.rp.mu.Unlock()

	if b.rp.Blocks[b.idx].End.IsZero() {
		b.rp.Blocks[b.idx].End = time.Now()
	}
}

func (rp *RequestPerf) MsFromStart(block *PerfBlock) float64 {
	return float64(block.Start.Sub(rp.Start).Nanoseconds()) / 1000 / 1000
}

func (rp *RequestPerf) DurationMs() float64 {
	return float64(rp.End.Sub(rp.Start).Nanoseconds()) / 1000 / 1000
}

type PerfBlock struct {
	Start       time.Time
	End         time.Time
	Category    string
	Description string
}

func (pb *PerfBlock) Duration() time.Duration {
	return pb.End.Sub(pb.Start)
}

func (pb *PerfBlock) DurationMs() float64 {
	return float64(pb.Duration().Nanoseconds()) / 1000 / 1000
}

type perfContextKey struct{}

var PerfContextKey = perfContextKey{}

// Returns the RequestPerf for the context, or nil if there isn't one.
func ExtractPerf(ctx context.Context) *RequestPerf {
	rp, _ := ctx.Value(PerfContextKey).(*RequestPerf)
	return rp
}
