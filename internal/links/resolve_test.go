package links

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustParseBase(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestParseRejectsFragmentOnlyLinks(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"#section", "#", ""} {
		_, ok := Parse(raw)
		require.False(t, ok, "expected %q to be rejected", raw)
	}
}

func TestResolveAbsoluteLinkUnchanged(t *testing.T) {
	t.Parallel()

	base := mustParseBase(t, "https://h/p/q")
	link, ok := Parse("https://other.example/a/b")
	require.True(t, ok)

	resolved, ok := link.ResolveFrom(base)
	require.True(t, ok)
	require.Equal(t, Resolved{Scheme: "https", Host: "other.example", Path: "/a/b"}, resolved)
}

func TestResolveTable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		base string
		want Resolved
	}{
		{
			name: "root relative inherits scheme and host",
			raw:  "/a/b",
			base: "https://h/p/q",
			want: Resolved{Scheme: "https", Host: "h", Path: "/a/b"},
		},
		{
			name: "bare path joins against base directory",
			raw:  "c",
			base: "https://h/p/q",
			want: Resolved{Scheme: "https", Host: "h", Path: "/p/c"},
		},
		{
			name: "bare path against shallow base",
			raw:  "c",
			base: "https://h/q",
			want: Resolved{Scheme: "https", Host: "h", Path: "/c"},
		},
		{
			name: "protocol relative defaults to https",
			raw:  "//h2/x",
			base: "http://h/p",
			want: Resolved{Scheme: "https", Host: "h2", Path: "/x"},
		},
		{
			name: "host without path gets root path",
			raw:  "https://h2",
			base: "https://h/p",
			want: Resolved{Scheme: "https", Host: "h2", Path: "/"},
		},
		{
			name: "scheme inherited from http base",
			raw:  "/x",
			base: "http://h/p",
			want: Resolved{Scheme: "http", Host: "h", Path: "/x"},
		},
		{
			// Dot segments are carried through textually, not collapsed.
			name: "parent relative path is not normalized",
			raw:  "../x",
			base: "https://h/a/b/c",
			want: Resolved{Scheme: "https", Host: "h", Path: "/a/b/../x"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			link, ok := Parse(tt.raw)
			require.True(t, ok)
			resolved, ok := link.ResolveFrom(mustParseBase(t, tt.base))
			require.True(t, ok)
			require.Equal(t, tt.want, resolved)
		})
	}
}

func TestResolveRejectsNonHTTPSchemes(t *testing.T) {
	t.Parallel()

	base := mustParseBase(t, "https://h/p")
	for _, raw := range []string{"mailto:a@b", "javascript:void(0)", "ftp://h/x"} {
		link, ok := Parse(raw)
		require.True(t, ok, "parse %q", raw)
		_, ok = link.ResolveFrom(base)
		require.False(t, ok, "expected %q to be rejected", raw)
	}
}

func TestResolveRejectsSameDocumentLink(t *testing.T) {
	t.Parallel()

	base := mustParseBase(t, "https://h/p")
	// A scheme with no host and no path resolves back to the base document.
	link := Link{Scheme: "https"}
	_, ok := link.ResolveFrom(base)
	require.False(t, ok)
}

func TestFromURL(t *testing.T) {
	t.Parallel()

	resolved, ok := FromURL("https://example.com/a")
	require.True(t, ok)
	require.Equal(t, "https://example.com/a", resolved.URL())

	_, ok = FromURL("https://example.com")
	require.False(t, ok, "missing path component")
	_, ok = FromURL("/just/a/path")
	require.False(t, ok, "missing scheme and host")
}
