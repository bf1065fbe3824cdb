package apiurl

import (
	"net/url"
)

type Q struct {
	Name  string
	Value string
}

// Url returns a root-relative URL. The API never needs to know what host it
// is served from.
func Url(path string, query []Q) string {
	result := "/" + trim(path)
	if q := encodeQuery(query); q != "" {
		result += "?" + q
	}
	return result
}

func trim(path string) string {
	if len(path) > 0 && path[0] == '/' {
		return path[1:]
	}
	return path
}

func encodeQuery(query []Q) string {
	result := url.Values{}
	for _, q := range query {
		result.Set(q.Name, q.Value)
	}
	return result.Encode()
}
