package model

import "time"

type MetricEvent struct {
	Time       time.Time         `json:"time"`
	MetricName string            `json:"metric_name"`
	Owner      string            `json:"owner"`
	Tags       map[string]string `json:"tags"`
}
