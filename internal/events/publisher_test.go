package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opencase-io/opencase/internal/models"
)

func TestNilPublisherDropsEvents(t *testing.T) {
	var p *Publisher
	ctx := context.Background()

	assert.NotPanics(t, func() {
		p.CaseCreated(ctx, &models.Case{ID: "c-1"})
		p.CaseUpdated(ctx, &models.Case{ID: "c-1"})
		p.CaseDeleted(ctx, "c-1")
		p.AlertCreated(ctx, &models.Alert{ID: "a-1"})
		p.AlertUpdated(ctx, &models.Alert{ID: "a-1"})
		p.Close()
	})
}
