package geniesdk

/*------------------------------------------------------------------
 *
 * Purpose:	m3u playlist parsing (§4.4, §6 "M3U"): resolves a playlist's
 *		entry lines into absolute URLs relative to the playlist's
 *		own URL, understanding full, schemeless, root-relative, and
 *		document-relative forms plus the `#EXT-X-STREAM-INF` /
 *		`#EXTINF` directive lines.
 *
 *------------------------------------------------------------------*/

import (
	"bufio"
	"strings"
)

// M3UEntry is one resolved playlist entry.
type M3UEntry struct {
	URL string
	// Title is the human-readable name from an #EXTINF directive, if any.
	Title string
	// Bandwidth is non-zero when the preceding line was #EXT-X-STREAM-INF
	// and it carried a BANDWIDTH attribute; used only for informational
	// purposes here since the player has no ABR ladder to pick from.
	Bandwidth int
}

// ParseM3U resolves every entry line in body against baseURL. baseURL is
// the playlist's own URL, used to resolve schemeless/relative entries.
func ParseM3U(body []byte, baseURL string) []M3UEntry {
	var entries []M3UEntry
	var pendingTitle string
	var pendingBandwidth int

	sc := bufio.NewScanner(strings.NewReader(string(body)))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#EXTINF:") {
			pendingTitle = parseExtinfTitle(line)
			continue
		}
		if strings.HasPrefix(line, "#EXT-X-STREAM-INF:") {
			pendingBandwidth = parseBandwidth(line)
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue // other directive/comment lines, not yet meaningful here
		}
		entries = append(entries, M3UEntry{
			URL:       resolveM3UURL(line, baseURL),
			Title:     pendingTitle,
			Bandwidth: pendingBandwidth,
		})
		pendingTitle = ""
		pendingBandwidth = 0
	}
	return entries
}

func parseExtinfTitle(line string) string {
	idx := strings.Index(line, ",")
	if idx < 0 || idx+1 >= len(line) {
		return ""
	}
	return strings.TrimSpace(line[idx+1:])
}

func parseBandwidth(line string) int {
	const key = "BANDWIDTH="
	idx := strings.Index(line, key)
	if idx < 0 {
		return 0
	}
	rest := line[idx+len(key):]
	n := 0
	for _, c := range rest {
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// resolveM3UURL turns a playlist entry line into an absolute URL, given
// the playlist's own URL as base:
//
//   - full URI ("scheme://host/path"): used verbatim.
//   - schemeless ("//host/path"): inherits base's scheme.
//   - root-relative ("/path"): inherits base's scheme+host.
//   - document-relative ("track.mp3"): resolved against base's directory.
func resolveM3UURL(entry, base string) string {
	if strings.Contains(entry, "://") {
		return entry
	}
	scheme, rest := splitScheme(base)
	if strings.HasPrefix(entry, "//") {
		return scheme + ":" + entry
	}
	host, path := splitHostPath(rest)
	if strings.HasPrefix(entry, "/") {
		return scheme + "://" + host + entry
	}
	dir := path
	if idx := strings.LastIndex(dir, "/"); idx >= 0 {
		dir = dir[:idx+1]
	} else {
		dir = "/"
	}
	return scheme + "://" + host + dir + entry
}

func splitScheme(url string) (scheme, rest string) {
	idx := strings.Index(url, "://")
	if idx < 0 {
		return "http", url
	}
	return url[:idx], url[idx+3:]
}

func splitHostPath(rest string) (host, path string) {
	idx := strings.Index(rest, "/")
	if idx < 0 {
		return rest, "/"
	}
	return rest[:idx], rest[idx:]
}

// isM3UURL reports whether url names an m3u/m3u8 playlist by extension,
// ignoring any query string.
func isM3UURL(url string) bool {
	path := url
	if idx := strings.IndexByte(path, '?'); idx >= 0 {
		path = path[:idx]
	}
	return strings.HasSuffix(path, ".m3u") || strings.HasSuffix(path, ".m3u8")
}
