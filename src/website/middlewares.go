package website

import (
	"fmt"
	"net/http"
	"time"

	"git.handmade.network/hmn/tablelog/src/logging"
	"git.handmade.network/hmn/tablelog/src/oops"
	"git.handmade.network/hmn/tablelog/src/perf"
	"git.handmade.network/hmn/tablelog/src/sessiondata"
	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-Id"

// Gives every request an id and a logger that carries it. A well-formed
// incoming id is kept so requests can be traced through a proxy.
func requestLoggerMiddleware(h Handler) Handler {
	return func(c *RequestContext) ResponseData {
		id, err := uuid.Parse(c.Req.Header.Get(RequestIDHeader))
		if err != nil {
			id = uuid.New()
		}
		c.RequestID = id.String()

		logger := c.Logger.With().Str("request_id", c.RequestID).Logger()
		c.Logger = &logger
		c.ctx = logging.AttachLoggerToContext(c.Logger, c.ctx)

		res := h(c)
		res.Header().Set(RequestIDHeader, c.RequestID)
		return res
	}
}

func storeMiddleware(store sessiondata.Store) Middleware {
	return func(h Handler) Handler {
		return func(c *RequestContext) ResponseData {
			c.Store = store
			return h(c)
		}
	}
}

func panicCatcherMiddleware(h Handler) Handler {
	return func(c *RequestContext) (res ResponseData) {
		defer func() {
			if recovered := recover(); recovered != nil {
				maybeError, ok := recovered.(error)
				var err error
				if ok {
					err = oops.New(maybeError, "Recovered from panic")
				} else {
					err = oops.New(nil, "Recovered from panic with value: %v", recovered)
				}
				res = c.ErrorResponse(http.StatusInternalServerError, err)
			}
		}()

		return h(c)
	}
}

func trackRequestPerf(h Handler) Handler {
	return func(c *RequestContext) (res ResponseData) {
		c.Perf = perf.MakeNewRequestPerf(c.Route, c.Req.Method, c.Req.URL.Path)
		defer func() {
			c.Perf.EndRequest()
			log := c.Logger.Info()
			blockStack := make([]time.Time, 0)
			for i, block := range c.Perf.Blocks {
				for len(blockStack) > 0 && block.End.After(blockStack[len(blockStack)-1]) {
					blockStack = blockStack[:len(blockStack)-1]
				}
				log.Str(fmt.Sprintf("[%4.d] At %9.2fms", i, c.Perf.MsFromStart(&block)), fmt.Sprintf("%*.s[%s] %s (%.4fms)", len(blockStack)*2, "", block.Category, block.Description, block.DurationMs()))
				blockStack = append(blockStack, block.End)
			}
			status := res.StatusCode
			if status == 0 {
				status = http.StatusOK
			}
			log.Int("status", status)
			log.Msg(fmt.Sprintf("Served [%s] %s in %.4fms", c.Perf.Method, c.Perf.Path, c.Perf.DurationMs()))
		}()

		return h(c)
	}
}

func logContextErrors(c *RequestContext, errs ...error) {
	for _, err := range errs {
		c.Logger.Error().Timestamp().Stack().Str("Requested", c.FullUrl()).Err(err).Msg("error occurred during request")
	}
}

func logContextErrorsMiddleware(h Handler) Handler {
	return func(c *RequestContext) ResponseData {
		res := h(c)
		logContextErrors(c, res.Errors...)
		return res
	}
}
