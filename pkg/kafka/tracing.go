package kafka

import (
	"github.com/segmentio/kafka-go"
)

// HeaderCarrier adapts kafka message headers to propagation.TextMapCarrier.
type HeaderCarrier struct {
	headers *[]kafka.Header
}

// NewHeaderCarrier wraps headers; Set mutates the slice in place.
func NewHeaderCarrier(headers *[]kafka.Header) *HeaderCarrier {
	return &HeaderCarrier{headers: headers}
}

func (c *HeaderCarrier) Get(key string) string {
	for _, h := range *c.headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c *HeaderCarrier) Set(key, value string) {
	for i, h := range *c.headers {
		if h.Key == key {
			(*c.headers)[i].Value = []byte(value)
			return
		}
	}
	*c.headers = append(*c.headers, kafka.Header{Key: key, Value: []byte(value)})
}

func (c *HeaderCarrier) Keys() []string {
	keys := make([]string, 0, len(*c.headers))
	for _, h := range *c.headers {
		keys = append(keys, h.Key)
	}
	return keys
}
