// Package notify carries object-created notifications from the object store
// to the ingester.
package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"
)

var ErrNoRecords = errors.New("notify: event has no records")

// ObjectCreatedEvent identifies a newly written object.
type ObjectCreatedEvent struct {
	Bucket string
	Key    string
}

type s3Notification struct {
	Records []s3Record `json:"Records"`
}

type s3Record struct {
	EventSource string    `json:"eventSource,omitempty"`
	EventName   string    `json:"eventName,omitempty"`
	EventTime   time.Time `json:"eventTime,omitempty"`
	S3          s3Entity  `json:"s3"`
}

type s3Entity struct {
	Bucket struct {
		Name string `json:"name"`
	} `json:"bucket"`
	Object struct {
		Key  string `json:"key"`
		Size int64  `json:"size,omitempty"`
	} `json:"object"`
}

// ParseEvent decodes an S3 event notification and returns its first record.
// Keys arrive form-encoded ("a+b.json" for "a b.json") and are unescaped.
func ParseEvent(data []byte) (ObjectCreatedEvent, error) {
	var n s3Notification
	if err := json.Unmarshal(data, &n); err != nil {
		return ObjectCreatedEvent{}, fmt.Errorf("notify: decode event: %w", err)
	}
	if len(n.Records) == 0 {
		return ObjectCreatedEvent{}, ErrNoRecords
	}
	rec := n.Records[0]
	if rec.S3.Bucket.Name == "" || rec.S3.Object.Key == "" {
		return ObjectCreatedEvent{}, errors.New("notify: event record without bucket or key")
	}
	key, err := url.QueryUnescape(rec.S3.Object.Key)
	if err != nil {
		return ObjectCreatedEvent{}, fmt.Errorf("notify: unescape key %q: %w", rec.S3.Object.Key, err)
	}
	return ObjectCreatedEvent{Bucket: rec.S3.Bucket.Name, Key: key}, nil
}

// MarshalEvent renders ev in the S3 notification shape understood by ParseEvent.
func MarshalEvent(ev ObjectCreatedEvent, size int64, at time.Time) ([]byte, error) {
	rec := s3Record{
		EventSource: "aws:s3",
		EventName:   "ObjectCreated:Put",
		EventTime:   at.UTC(),
	}
	rec.S3.Bucket.Name = ev.Bucket
	rec.S3.Object.Key = url.QueryEscape(ev.Key)
	rec.S3.Object.Size = size
	return json.Marshal(s3Notification{Records: []s3Record{rec}})
}
