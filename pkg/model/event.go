package model

import "time"

// StorageEvent is the (trimmed) S3-style notification emitted by the object
// store when a document is created or removed. Only the fields the indexing
// pipeline acts on are decoded.
type StorageEvent struct {
	Records []StorageEventRecord `json:"Records"`
}

type StorageEventRecord struct {
	EventSource string             `json:"eventSource"`
	EventTime   time.Time          `json:"eventTime"`
	EventName   string             `json:"eventName"`
	S3          StorageEventEntity `json:"s3"`
}

type StorageEventEntity struct {
	Bucket StorageEventBucket `json:"bucket"`
	Object StorageEventObject `json:"object"`
}

type StorageEventBucket struct {
	Name string `json:"name"`
}

type StorageEventObject struct {
	Key  string `json:"key"`
	Size int64  `json:"size"`
}

const (
	// Event names follow the S3 notification convention used by minio.
	EventObjectCreated = "s3:ObjectCreated:Put"
	EventObjectRemoved = "s3:ObjectRemoved:Delete"
)
