package request

import (
	"net/url"
	"strings"
	"time"

	"github.com/opengamedata/ogdviz/filter"
)

// CacheKey is the canonical key of the data d describes.
//
// Metrics requests encode as
//
//	SCOPE/game/minApp/maxApp/minLog/maxLog/start/end/metric,metric[/player]
//
// and feature lists as SCOPE/game/FeatureList. Open bounds encode as "*" and
// every segment is path-escaped, so no field value can forge a separator.
func (d *Descriptor) CacheKey() string {
	return d.key
}

func (d *Descriptor) buildKey() string {
	if d.featureList {
		return joinKey(string(d.scope), d.game, featureListSegment)
	}

	escaped := make([]string, len(d.metrics))
	for i, m := range d.metrics {
		escaped[i] = url.PathEscape(m)
	}
	segments := []string{
		string(d.scope),
		d.game,
		openBound(d.minAppVersion),
		openBound(d.maxAppVersion),
		openBound(d.minLogVersion),
		openBound(d.maxLogVersion),
		keyDate(d.startDate),
		keyDate(d.endDate),
	}
	key := joinKey(segments...) + "/" + strings.Join(escaped, ",")
	if d.playerID != "" {
		key += "/" + url.PathEscape(d.playerID)
	}
	return key
}

func joinKey(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		if s == filter.Wildcard {
			escaped[i] = s
			continue
		}
		escaped[i] = url.PathEscape(s)
	}
	return strings.Join(escaped, "/")
}

func openBound(v string) string {
	if v == "" {
		return filter.Wildcard
	}
	return v
}

func keyDate(t *time.Time) string {
	if t == nil {
		return filter.Wildcard
	}
	return t.Format(filter.DateLayout)
}
