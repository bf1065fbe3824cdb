package website

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"git.handmade.network/hmn/tablelog/src/apiurl"
	"git.handmade.network/hmn/tablelog/src/models"
	"git.handmade.network/hmn/tablelog/src/sessiondata"
)

// Request body for create and update. Every field is a pointer so we can
// tell "not sent" (or null) apart from an empty value.
type sessionBody struct {
	Title   *string `json:"title"`
	System  *string `json:"system"`
	Players *string `json:"players"`
	Date    *string `json:"date"`
}

// Zone-less forms are taken as UTC. Fractional seconds are accepted by all
// of them.
var acceptedDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

func parseSessionDate(value string) (time.Time, bool) {
	for _, layout := range acceptedDateLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func decodeSessionBody(c *RequestContext) (sessionBody, *sessiondata.ValidationError) {
	var body sessionBody

	b := c.Perf.StartBlock("JSON", "Decode request")
	defer b.End()

	raw := new(bytes.Buffer)
	if _, err := raw.ReadFrom(http.MaxBytesReader(c.Res, c.Req.Body, 1<<20)); err != nil {
		return body, &sessiondata.ValidationError{Message: "Could not read request body"}
	}
	if err := json.Unmarshal(raw.Bytes(), &body); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return body, &sessiondata.ValidationError{Field: typeErr.Field, Message: typeErr.Field + " must be a string"}
		}
		return body, &sessiondata.ValidationError{Message: "Request body must be a JSON object"}
	}
	return body, nil
}

func (body sessionBody) date() (*time.Time, *sessiondata.ValidationError) {
	if body.Date == nil {
		return nil, nil
	}
	date, ok := parseSessionDate(*body.Date)
	if !ok {
		return nil, &sessiondata.ValidationError{Field: "date", Message: "date must be an ISO 8601 timestamp, e.g. 2024-03-01T19:30:00Z"}
	}
	return &date, nil
}

func Health(c *RequestContext) ResponseData {
	var res ResponseData
	res.WriteJson(map[string]bool{"ok": true}, c.Perf)
	return res
}

func SessionList(c *RequestContext) ResponseData {
	q, err := parseSessionQuery(c)
	if err != nil {
		return sessionErrorResponse(c, err)
	}

	page, err := sessiondata.FetchSessionPage(c, c.Store, q)
	if err != nil {
		return sessionErrorResponse(c, err)
	}

	var res ResponseData
	res.WriteJson(page, c.Perf)
	return res
}

// Missing parameters keep their defaults. Range checks happen in
// sessiondata; here we only need the values to be integers.
func parseSessionQuery(c *RequestContext) (sessiondata.SessionQuery, error) {
	q := sessiondata.DefaultSessionQuery()
	values := c.Req.URL.Query()

	q.Q = values.Get("q")
	if values.Has("sort_by") {
		q.SortBy = values.Get("sort_by")
	}
	if values.Has("order") {
		q.Order = values.Get("order")
	}
	if values.Has("page") {
		page, err := strconv.Atoi(values.Get("page"))
		if err != nil {
			return q, sessiondata.NewArgumentError("page", "page must be an integer, got '%s'", values.Get("page"))
		}
		q.Page = page
	}
	if values.Has("limit") {
		limit, err := strconv.Atoi(values.Get("limit"))
		if err != nil {
			return q, sessiondata.NewArgumentError("limit", "limit must be an integer, got '%s'", values.Get("limit"))
		}
		q.Limit = limit
	}

	return q, nil
}

func SessionCreate(c *RequestContext) ResponseData {
	body, vErr := decodeSessionBody(c)
	if vErr != nil {
		return sessionErrorResponse(c, vErr)
	}

	for _, required := range []struct {
		name  string
		value *string
	}{
		{"title", body.Title},
		{"system", body.System},
		{"players", body.Players},
	} {
		if required.value == nil {
			return sessionErrorResponse(c, sessiondata.NewValidationError(required.name, "%s is required", required.name))
		}
	}

	date, vErr := body.date()
	if vErr != nil {
		return sessionErrorResponse(c, vErr)
	}

	record, err := c.Store.CreateSession(c, models.SessionCreate{
		Title:   *body.Title,
		System:  *body.System,
		Players: *body.Players,
		Date:    date,
	})
	if err != nil {
		return sessionErrorResponse(c, err)
	}
	c.Logger.Info().Int("id", record.ID).Msg("Created session")

	res := ResponseData{
		StatusCode: http.StatusCreated,
	}
	res.Header().Set("Location", apiurl.BuildSession(record.ID))
	res.WriteJson(record, c.Perf)
	return res
}

func SessionGet(c *RequestContext) ResponseData {
	id, ok := c.IntPathParam("id")
	if !ok {
		return sessionErrorResponse(c, sessiondata.NotFound)
	}

	record, err := c.Store.GetSession(c, id)
	if err != nil {
		return sessionErrorResponse(c, err)
	}

	var res ResponseData
	res.WriteJson(record, c.Perf)
	return res
}

func SessionUpdate(c *RequestContext) ResponseData {
	id, ok := c.IntPathParam("id")
	if !ok {
		return sessionErrorResponse(c, sessiondata.NotFound)
	}

	body, vErr := decodeSessionBody(c)
	if vErr != nil {
		return sessionErrorResponse(c, vErr)
	}
	date, vErr := body.date()
	if vErr != nil {
		return sessionErrorResponse(c, vErr)
	}

	record, err := c.Store.UpdateSession(c, id, models.SessionPatch{
		Title:   body.Title,
		System:  body.System,
		Players: body.Players,
		Date:    date,
	})
	if err != nil {
		return sessionErrorResponse(c, err)
	}

	var res ResponseData
	res.WriteJson(record, c.Perf)
	return res
}

func SessionDelete(c *RequestContext) ResponseData {
	id, ok := c.IntPathParam("id")
	if !ok {
		return sessionErrorResponse(c, sessiondata.NotFound)
	}

	if err := c.Store.DeleteSession(c, id); err != nil {
		return sessionErrorResponse(c, err)
	}
	c.Logger.Info().Int("id", id).Msg("Deleted session")

	return ResponseData{
		StatusCode: http.StatusNoContent,
	}
}
