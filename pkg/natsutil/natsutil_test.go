package natsutil

import (
	"testing"

	"github.com/nats-io/nats.go"
)

func TestHeaderCarrier(t *testing.T) {
	msg := &nats.Msg{}
	c := (*natsHeaderCarrier)(msg)

	if c.Get("traceparent") != "" {
		t.Fatal("empty carrier should return empty value")
	}
	if c.Keys() != nil {
		t.Fatal("empty carrier should have no keys")
	}

	c.Set("traceparent", "00-abc-def-01")
	if got := c.Get("traceparent"); got != "00-abc-def-01" {
		t.Fatalf("got %q", got)
	}
	if keys := c.Keys(); len(keys) != 1 {
		t.Fatalf("expected 1 key, got %v", keys)
	}
	if msg.Header.Get("traceparent") == "" {
		t.Fatal("carrier should write through to the message header")
	}
}
