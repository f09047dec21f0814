package event_notifier

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishSkipsEmptyChannel(t *testing.T) {
	n := NewNotifier(nil, "")
	assert.NoError(t, n.Publish(context.Background(), "", EventDatasetCreated, nil))
}

func TestPublishSkipsWithoutClient(t *testing.T) {
	n := NewNotifier(nil, "")
	assert.NoError(t, n.Publish(context.Background(), "chan-1", EventDatasetFailed, []string{"x"}))
}
