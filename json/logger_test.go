package json

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cargoline/cargoline/inventory"
)

func TestSetLoggerEmitsSkipTrace(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	SetLogger(zap.New(core))
	defer SetLogger(zap.NewNop())

	var p person
	im := NewImporter(Options{SkipUnknown: true})
	err := im.Receive(&p, inventory.Identity{Name: "person"},
		src(`{"id":"1","nickname":"x"}`))
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}

	entries := logs.FilterMessage("skipping unknown member").All()
	if len(entries) != 1 {
		t.Fatalf("debug entries = %d, want 1", len(entries))
	}
	if got := entries[0].ContextMap()["name"]; got != "nickname" {
		t.Errorf("name field = %v", got)
	}
}
