package awsutil

import (
	"context"
	"testing"
)

func TestNewSQSClientLocalstack(t *testing.T) {
	c, err := NewSQSClient(context.Background(), "us-east-1", "http://localhost:4566")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	opts := c.Options()
	if opts.BaseEndpoint == nil || *opts.BaseEndpoint != "http://localhost:4566" {
		t.Fatalf("expected localstack endpoint, got %v", opts.BaseEndpoint)
	}
	if opts.Region != "us-east-1" {
		t.Fatalf("unexpected region %q", opts.Region)
	}
}
