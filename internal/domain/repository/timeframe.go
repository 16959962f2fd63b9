package repository

import "fmt"

// Timespan is the aggregate bucket unit understood by the market-data API.
type Timespan string

const (
	Minute Timespan = "minute"
	Hour   Timespan = "hour"
	Day    Timespan = "day"
)

// Timeframe is a bar size such as 5 minute or 1 day.
type Timeframe struct {
	Multiplier int
	Timespan   Timespan
}

var (
	TF1m = Timeframe{1, Minute}
	TF5m = Timeframe{5, Minute}
	TF1d = Timeframe{1, Day}
)

func (tf Timeframe) String() string {
	switch tf.Timespan {
	case Hour:
		return fmt.Sprintf("%dh", tf.Multiplier)
	case Day:
		return fmt.Sprintf("%dd", tf.Multiplier)
	default:
		return fmt.Sprintf("%dm", tf.Multiplier)
	}
}
