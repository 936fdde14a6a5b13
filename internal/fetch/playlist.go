package fetch

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	apperr "zentrio/internal/apperrors"
	"zentrio/internal/store"
)

// Variant is one bitrate encoding listed in a master playlist.
type Variant struct {
	Bandwidth int64
	URI       string
}

// parsedPlaylist is the result of scanning an M3U8 document: either a
// master playlist (non-empty Variants) or a media playlist (non-empty
// Segments), never both.
type parsedPlaylist struct {
	Variants []Variant
	Segments []string
}

func (p parsedPlaylist) isMaster() bool {
	return len(p.Variants) > 0
}

var bandwidthPattern = regexp.MustCompile(`BANDWIDTH=(\d+)`)

// parseM3U8 scans an M3U8 document line by line. It recognizes
// #EXT-X-STREAM-INF (variant + following URI line) for master
// playlists and #EXTINF (segment + following URI line) for media
// playlists — no general-purpose M3U8 grammar, just the directives
// this engine's two playlist shapes need.
func parseM3U8(content string) parsedPlaylist {
	lines := strings.Split(content, "\n")
	var result parsedPlaylist

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])

		switch {
		case strings.HasPrefix(line, "#EXT-X-STREAM-INF:"):
			bandwidth := int64(0)
			if m := bandwidthPattern.FindStringSubmatch(line); m != nil {
				bandwidth, _ = strconv.ParseInt(m[1], 10, 64)
			}
			if uri, ok := nextURILine(lines, i+1); ok {
				result.Variants = append(result.Variants, Variant{Bandwidth: bandwidth, URI: uri})
			}

		case strings.HasPrefix(line, "#EXTINF:"):
			if uri, ok := nextURILine(lines, i+1); ok {
				result.Segments = append(result.Segments, uri)
			}
		}
	}

	return result
}

// nextURILine scans forward from index i for the next non-blank,
// non-comment line, which is the URI associated with the directive
// just read.
func nextURILine(lines []string, i int) (string, bool) {
	for ; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return line, true
	}
	return "", false
}

// resolveURL resolves uri relative to playlistURL, unless uri is
// already absolute (begins with "http").
func resolveURL(playlistURL, uri string) string {
	if strings.HasPrefix(uri, "http") {
		return uri
	}
	base := playlistURL
	if idx := strings.LastIndex(playlistURL, "/"); idx >= 0 {
		base = playlistURL[:idx+1]
	}
	return base + uri
}

const (
	higherBandwidthCeiling  = 8_000_000
	standardBandwidthFloor  = 1_000_000
)

// pickVariant selects one variant from a master playlist by quality
// preference:
//   - Best: highest bandwidth.
//   - Higher: highest bandwidth ≤ 8,000,000; falls back to highest
//     overall if none qualifies.
//   - Standard: lowest bandwidth ≥ 1,000,000; falls back to highest
//     overall if none qualifies.
func pickVariant(variants []Variant, quality store.Quality) (Variant, error) {
	if len(variants) == 0 {
		return Variant{}, apperr.Wrap("pickVariant", apperr.ErrNoVariants)
	}

	sorted := make([]Variant, len(variants))
	copy(sorted, variants)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Bandwidth > sorted[j].Bandwidth
	})

	switch quality {
	case store.QualityHigher:
		for _, v := range sorted {
			if v.Bandwidth <= higherBandwidthCeiling {
				return v, nil
			}
		}
		return sorted[0], nil

	case store.QualityStandard:
		for i := len(sorted) - 1; i >= 0; i-- {
			if sorted[i].Bandwidth >= standardBandwidthFloor {
				return sorted[i], nil
			}
		}
		return sorted[0], nil

	default: // Best
		return sorted[0], nil
	}
}
