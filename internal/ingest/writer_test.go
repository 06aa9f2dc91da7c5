package ingest

import (
	"testing"

	"github.com/thepalians/reviewer-sub002/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestBuildNotesFullRow(t *testing.T) {
	notes := buildNotes(model.TaskRow{
		ProductName:     "Ultra Widget",
		Notes:           "Ship to warehouse B",
		OrderID:         "ORD-100",
		MarketplaceLink: "https://market.example.com/item/1",
	})

	assert.Equal(t,
		"Product: Ultra Widget\nShip to warehouse B\n(Order: ORD-100)\nMarketplace: https://market.example.com/item/1",
		notes)
}

func TestBuildNotesSkipsEmptyFields(t *testing.T) {
	notes := buildNotes(model.TaskRow{ProductName: "Ultra Widget"})

	assert.Equal(t, "Product: Ultra Widget", notes)
}

func TestBuildNotesOrderOnly(t *testing.T) {
	notes := buildNotes(model.TaskRow{
		ProductName: "Ultra Widget",
		OrderID:     "ORD-7",
	})

	assert.Equal(t, "Product: Ultra Widget\n(Order: ORD-7)", notes)
}

func TestDefaultTaskSteps(t *testing.T) {
	assert.Equal(t, []string{
		"Order Placed",
		"Order Delivered",
		"Review Submitted",
		"Review Approved",
		"Refund Processed",
	}, DefaultTaskSteps)
}
