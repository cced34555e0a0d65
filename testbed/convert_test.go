package testbed

import (
	"bytes"
	"testing"

	"github.com/cargoline/cargoline"
	"github.com/cargoline/cargoline/document"
	"github.com/cargoline/cargoline/json"
	"github.com/cargoline/cargoline/xml"
)

func src(data []byte) cargoline.Source {
	return cargoline.NewBytesSource(data)
}

// A document tree needs no compiled-in types: the dynamic receivers carry
// any shape between the two formats.

func TestConvertShipmentXMLToJSON(t *testing.T) {
	var node document.Node
	if err := xml.Receive(&node, shipmentID, []byte(shipmentXML)); err != nil {
		t.Fatalf("xml Receive: %v", err)
	}

	var buf bytes.Buffer
	if err := json.Send(node.Cargo(), shipmentID, &buf); err != nil {
		t.Fatalf("json Send: %v", err)
	}

	// XML carries no scalar typing, so every leaf crosses as text.
	want := `{"id":"S-1","priority":"true","destination":{"street":"5 Main St","city":"Omsk"},"parcel":[{"sku":"A1","weight":"2"},{"sku":"B2","weight":"5"}],"payment":{"method":"card","number":"4111","expiry":"12/28"}}`
	if got := buf.String(); got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
}

func TestConvertShipmentJSONToXML(t *testing.T) {
	var node document.Node
	if err := json.Receive(&node, shipmentID, []byte(shipmentJSON)); err != nil {
		t.Fatalf("json Receive: %v", err)
	}

	var buf bytes.Buffer
	if err := xml.Send(node.Cargo(), shipmentID, &buf); err != nil {
		t.Fatalf("xml Send: %v", err)
	}

	// JSON carries no attribute roles, so every field crosses as a child
	// element.
	want := `<shipment><id>S-1</id><priority>true</priority><destination><street>5 Main St</street><city>Omsk</city></destination><parcel><sku>A1</sku><weight>2</weight></parcel><parcel><sku>B2</sku><weight>5</weight></parcel><payment><method>card</method><number>4111</number><expiry>12/28</expiry></payment></shipment>`
	if got := buf.String(); got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
}

func TestConvertPreservesNull(t *testing.T) {
	var node document.Node
	if err := json.Receive(&node, shipmentID, []byte(`{"a":null,"b":"x"}`)); err != nil {
		t.Fatalf("json Receive: %v", err)
	}

	var buf bytes.Buffer
	if err := xml.Send(node.Cargo(), shipmentID, &buf); err != nil {
		t.Fatalf("xml Send: %v", err)
	}
	want := `<shipment><a/><b>x</b></shipment>`
	if got := buf.String(); got != want {
		t.Errorf("got %s want %s", got, want)
	}
}
