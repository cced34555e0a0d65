package xml

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
		src(`<person id="1" nickname="x"><hobby>chess</hobby></person>`))
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}

	if n := logs.FilterMessage("skipping unknown attribute").Len(); n != 1 {
		t.Errorf("attribute traces = %d, want 1", n)
	}
	if n := logs.FilterMessage("skipping unknown element").Len(); n != 1 {
		t.Errorf("element traces = %d, want 1", n)
	}
}
