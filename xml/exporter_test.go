package xml

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/cargoline/cargoline/cargo"
	"github.com/cargoline/cargoline/errors"
	"github.com/cargoline/cargoline/inventory"
)

func export(t *testing.T, opts Options, c cargo.Cargo, name string) string {
	t.Helper()
	var sb strings.Builder
	if err := NewExporter(opts).Send(c, inventory.Identity{Name: name}, &sb); err != nil {
		t.Fatalf("Send: %v", err)
	}
	return sb.String()
}

func TestExportPerson(t *testing.T) {
	p := person{
		id:   textItem{v: "123"},
		name: textItem{v: "Ralph"},
		age:  intItem{v: 30},
		tags: []string{"a", "b"},
	}
	got := export(t, Options{}, &p, "person")
	want := `<person id="123"><name>Ralph</name><age>30</age><tags>a</tags><tags>b</tags></person>`
	if got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
}

func TestExportSelfClosing(t *testing.T) {
	a := attrOnly{x: intItem{v: 7}}
	got := export(t, Options{}, &a, "a")
	if got != `<a x="7"/>` {
		t.Errorf("got %s", got)
	}
}

func TestExportNull(t *testing.T) {
	var n nullItem
	got := export(t, Options{}, &n, "n")
	if got != `<n/>` {
		t.Errorf("got %s", got)
	}
}

func TestExportEscapes(t *testing.T) {
	p := person{
		id:   textItem{v: `he said "no" & left`},
		name: textItem{v: "a<b>&c"},
	}
	got := export(t, Options{}, &p, "p")
	want := `<p id="he said &quot;no&quot; &amp; left"><name>a&lt;b&gt;&amp;c</name><age>0</age></p>`
	if got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
}

func TestExportTabbed(t *testing.T) {
	p := person{
		id:   textItem{v: "1"},
		name: textItem{v: "n"},
		tags: []string{"a"},
	}
	got := export(t, Options{Tabbed: true}, &p, "person")
	want := "<person id=\"1\">\n\t<name>n</name>\n\t<age>0</age>\n\t<tags>a</tags>\n</person>\n"
	if got != want {
		t.Errorf("got  %q\nwant %q", got, want)
	}
}

func TestExportProlog(t *testing.T) {
	a := attrOnly{x: intItem{v: 1}}
	got := export(t, Options{Prolog: true}, &a, "a")
	want := "<?xml version=\"1.0\" encoding=\"utf-8\"?>\n<a x=\"1\"/>"
	if got != want {
		t.Errorf("got  %q\nwant %q", got, want)
	}
}

func TestExportCollapsedContainer(t *testing.T) {
	s := shelf{
		label: textItem{v: "home"},
		books: bookList{titles: []string{"Sum", "Iliad"}},
	}
	got := export(t, Options{}, &s, "shelf")
	want := `<shelf><label>home</label><book>Sum</book><book>Iliad</book></shelf>`
	if got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
}

func TestExportNamespaces(t *testing.T) {
	q := nsPair{v: textItem{v: "x"}}
	got := export(t, Options{Namespaces: true}, &q, "q")
	want := `<q><v:name>x</v:name></q>`
	if got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}

	// Without the option the prefix is dropped from emission.
	got = export(t, Options{}, &q, "q")
	want = `<q><name>x</name></q>`
	if got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
}

func TestExportMissingRequired(t *testing.T) {
	var p person
	var sb strings.Builder
	err := NewExporter(Options{EveryEntryRequired: true}).Send(&p, inventory.Identity{Name: "p"}, &sb)
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindInstanceMissing {
		t.Fatalf("err = %v, want instance_missing", err)
	}
	if e.Phase != errors.PhaseSend {
		t.Errorf("Phase = %v, want send", e.Phase)
	}
}

func TestExportAnonymousRoot(t *testing.T) {
	var p person
	var sb strings.Builder
	err := NewExporter(Options{}).Send(&p, inventory.Identity{}, &sb)
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindMissingName {
		t.Fatalf("err = %v, want missing_name", err)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, fmt.Errorf("sink closed")
}

func TestExportWriteFailure(t *testing.T) {
	p := person{id: textItem{v: "1"}}
	err := NewExporter(Options{}).Send(&p, inventory.Identity{Name: "p"}, failingWriter{})
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindWriteFailure {
		t.Fatalf("err = %v, want write_failure", err)
	}
	if e.Kind.Class() != errors.ClassDestination {
		t.Errorf("Class = %v, want destination", e.Kind.Class())
	}
}

func TestRoundTrip(t *testing.T) {
	opts := []Options{
		{},
		{Tabbed: true},
		{LineFeeds: true, Prolog: true},
	}
	for i, o := range opts {
		t.Run(fmt.Sprintf("options-%d", i), func(t *testing.T) {
			orig := person{
				id:   textItem{v: "123"},
				name: textItem{v: "Ralph <jr> & co"},
				age:  intItem{v: 30},
				tags: []string{"x", "y", "z"},
			}
			var sb strings.Builder
			if err := NewExporter(o).Send(&orig, inventory.Identity{Name: "person"}, &sb); err != nil {
				t.Fatalf("Send: %v", err)
			}
			var back person
			if err := NewImporter(o).Receive(&back, inventory.Identity{Name: "person"}, src(sb.String())); err != nil {
				t.Fatalf("Receive: %v\ndocument: %s", err, sb.String())
			}
			if back.id.v != orig.id.v || back.name.v != orig.name.v || back.age.v != orig.age.v {
				t.Errorf("fields = %q %q %d", back.id.v, back.name.v, back.age.v)
			}
			if len(back.tags) != 3 || back.tags[2] != "z" {
				t.Errorf("tags = %v", back.tags)
			}
		})
	}
}

func TestRoundTripCollapsed(t *testing.T) {
	orig := shelf{
		label: textItem{v: "home"},
		books: bookList{titles: []string{"Sum", "Iliad"}},
	}
	var sb strings.Builder
	if err := Send(&orig, inventory.Identity{Name: "shelf"}, &sb); err != nil {
		t.Fatalf("Send: %v", err)
	}
	var back shelf
	if err := Receive(&back, inventory.Identity{Name: "shelf"}, []byte(sb.String())); err != nil {
		t.Fatalf("Receive: %v\ndocument: %s", err, sb.String())
	}
	if len(back.books.titles) != 2 || back.books.titles[1] != "Iliad" {
		t.Errorf("titles = %v", back.books.titles)
	}
}
