package parser

import "github.com/loglens/backend/internal/models"

// Aggregate computes level and HTTP class counts plus the first and last
// non-empty timestamps in document order.
func Aggregate(records []models.Record) models.Statistics {
	st := models.Statistics{TotalLines: len(records)}
	for i := range records {
		r := &records[i]
		switch r.Level {
		case models.LevelTrace:
			st.Trace++
		case models.LevelDebug:
			st.Debug++
		case models.LevelInfo:
			st.Info++
		case models.LevelWarning:
			st.Warning++
		case models.LevelError:
			st.Error++
		case models.LevelFatal, models.LevelCritical:
			st.Fatal++
		default:
			st.Unknown++
		}

		switch s := r.HTTPStatus; {
		case s >= 200 && s < 300:
			st.HTTP2xx++
		case s >= 300 && s < 400:
			st.HTTP3xx++
		case s >= 400 && s < 500:
			st.HTTP4xx++
		case s >= 500:
			st.HTTP5xx++
		}
	}

	for i := range records {
		if records[i].Timestamp != "" {
			st.FirstTimestamp = records[i].Timestamp
			break
		}
	}
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].Timestamp != "" {
			st.LastTimestamp = records[i].Timestamp
			break
		}
	}
	return st
}
