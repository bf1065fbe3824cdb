package apiurl

import (
	"fmt"
	"regexp"
)

var RegexHealth = regexp.MustCompile("^/health$")

func BuildHealth() string {
	return Url("/health", nil)
}

var RegexSessions = regexp.MustCompile("^/sessions$")

// Query parameters are the list parameters: q, sort_by, order, page, limit.
func BuildSessions(query []Q) string {
	return Url("/sessions", query)
}

var RegexSession = regexp.MustCompile(`^/sessions/(?P<id>\d+)$`)

func BuildSession(id int) string {
	if id < 1 {
		panic(fmt.Errorf("invalid session id: %d", id))
	}
	return Url(fmt.Sprintf("/sessions/%d", id), nil)
}

var RegexAny = regexp.MustCompile("^")
