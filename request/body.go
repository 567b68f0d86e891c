package request

import (
	"github.com/opengamedata/ogdviz/filter"
)

const (
	startOfDay = "T00:00"
	endOfDay   = "T23:59"
)

// Body returns the JSON body for POST requests, nil for GET.
// The date range covers whole days: start at 00:00, end at 23:59.
func (d *Descriptor) Body() map[string]interface{} {
	if d.featureList {
		return nil
	}
	body := map[string]interface{}{
		"game_id": d.game,
		"metrics": d.Metrics(),
	}
	if d.startDate != nil {
		body["start_datetime"] = d.startDate.Format(filter.DateLayout) + startOfDay
	}
	if d.endDate != nil {
		body["end_datetime"] = d.endDate.Format(filter.DateLayout) + endOfDay
	}
	setIf(body, "app_version_min", d.minAppVersion)
	setIf(body, "app_version_max", d.maxAppVersion)
	setIf(body, "log_version_min", d.minLogVersion)
	setIf(body, "log_version_max", d.maxLogVersion)
	setIf(body, "player_id", d.playerID)
	return body
}

func setIf(body map[string]interface{}, key, value string) {
	if value != "" {
		body[key] = value
	}
}
