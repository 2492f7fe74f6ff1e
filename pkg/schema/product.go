package schema

import "time"

const ProductEventSchemaTextV1 = `{
	"type": "record",
	"namespace": "catalog",
	"name": "product_event",
	"fields": [
		{"name": "event_type", "type": "string"},
		{"name": "product_id", "type": "long"},
		{"name": "name", "type": "string"},
		{"name": "category", "type": "string"},
		{"name": "price", "type": "string"},
		{"name": "image", "type": ["null", "string"], "default": null},
		{"name": "occurred_at", "type": {"type": "long", "logicalType": "timestamp-millis"}}
	]
}`

// ProductEventV1 is a catalog change. Price is a decimal string with two
// fractional digits; it is empty for deletions.
type ProductEventV1 struct {
	EventType  string    `avro:"event_type"`
	ProductID  int64     `avro:"product_id"`
	Name       string    `avro:"name"`
	Category   string    `avro:"category"`
	Price      string    `avro:"price"`
	Image      *string   `avro:"image"`
	OccurredAt time.Time `avro:"occurred_at"`
}
