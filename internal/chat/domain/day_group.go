package domain

import (
	"math"
	"time"
)

// MessageDay messages of one calendar day, for display only.
// Storage never buckets by day.
type MessageDay struct {
	Label    string    `json:"label"` // Today / Yesterday / Monday / Jan 2, 2006
	Date     string    `json:"date"`  // 2006-01-02
	Messages []Message `json:"messages"`
}

// GroupByDay expects messages already sorted by (timestamp, id)
func GroupByDay(msgs []Message, now time.Time, loc *time.Location) []MessageDay {
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	var days []MessageDay
	for _, m := range msgs {
		t := time.UnixMilli(m.Timestamp).In(loc)
		date := t.Format("2006-01-02")
		if len(days) == 0 || days[len(days)-1].Date != date {
			days = append(days, MessageDay{
				Label: dayLabel(t, today),
				Date:  date,
			})
		}
		days[len(days)-1].Messages = append(days[len(days)-1].Messages, m)
	}
	return days
}

func dayLabel(t, today time.Time) string {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, today.Location())
	switch diff := int(math.Round(today.Sub(day).Hours() / 24)); {
	case diff == 0:
		return "Today"
	case diff == 1:
		return "Yesterday"
	case diff > 1 && diff < 7:
		return t.Weekday().String()
	default:
		return t.Format("Jan 2, 2006")
	}
}
