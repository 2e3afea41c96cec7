package search

import "bytes"

var spaMarkers = [][]byte{
	[]byte("__next"),
	[]byte("id=\"root\""),
	[]byte("id=\"app\""),
	[]byte("data-reactroot"),
	[]byte("JavaScript is not available"),
}

// looksLikeScriptShell decides whether a results page body is a JavaScript
// application shell rather than server-rendered content, and therefore worth
// promoting to a headless render.
func looksLikeScriptShell(body []byte) bool {
	if len(body) == 0 {
		return true
	}
	if hasTweets(body) {
		return false
	}
	for _, marker := range spaMarkers {
		if bytes.Contains(body, marker) {
			return true
		}
	}
	return false
}
