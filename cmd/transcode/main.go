package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/cargoline/cargoline"
	"github.com/cargoline/cargoline/document"
	"github.com/cargoline/cargoline/inventory"
	"github.com/cargoline/cargoline/json"
	"github.com/cargoline/cargoline/xml"
)

func main() {
	var (
		inFile        = flag.String("in", "", "Input document (default stdin)")
		outFile       = flag.String("out", "", "Output document (default stdout)")
		from          = flag.String("from", "", "Input format: json or xml (inferred when empty)")
		to            = flag.String("to", "", "Output format: json or xml (inferred when empty)")
		root          = flag.String("root", "", "Root element name (inferred from XML input)")
		tabbed        = flag.Bool("tabbed", false, "Indent output with tabs")
		lineFeeds     = flag.Bool("linefeeds", false, "Terminate output lines")
		namespaces    = flag.Bool("namespaces", false, "Keep namespace prefixes significant")
		prolog        = flag.Bool("prolog", false, "Emit an xml declaration on XML output")
		skipUnknown   = flag.Bool("skip-unknown", false, "Discard unknown names instead of failing")
		failOnMissing = flag.Bool("fail-on-missing", false, "Fail when required entries never arrive")
		everyRequired = flag.Bool("every-entry-required", false, "Treat every declared entry as required")
		interactive   = flag.Bool("i", false, "Interactive tree inspector")
		verbose       = flag.Bool("v", false, "Debug logging to stderr")
	)
	flag.Parse()

	if *verbose {
		logger, err := zap.NewDevelopment()
		if err == nil {
			json.SetLogger(logger)
			xml.SetLogger(logger)
		}
	}

	if err := run(*inFile, *outFile, *from, *to, *root, options{
		tabbed:        *tabbed,
		lineFeeds:     *lineFeeds,
		namespaces:    *namespaces,
		prolog:        *prolog,
		skipUnknown:   *skipUnknown,
		failOnMissing: *failOnMissing,
		everyRequired: *everyRequired,
	}, *interactive); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// options carries the transport toggles in one bag so run's signature
// stays readable.
type options struct {
	tabbed        bool
	lineFeeds     bool
	namespaces    bool
	prolog        bool
	skipUnknown   bool
	failOnMissing bool
	everyRequired bool
}

func run(inFile, outFile, from, to, root string, opts options, interactive bool) error {
	data, err := readInput(inFile)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("input is empty")
	}

	from = resolveFormat(from, inFile, data)
	if to == "" {
		to = formatFromPath(outFile)
	}
	if to == "" {
		// Conversion is the common case: default to the other format.
		if from == "xml" {
			to = "json"
		} else {
			to = "xml"
		}
	}

	if root == "" {
		if from == "xml" {
			root = rootTag(data)
		}
		if root == "" {
			root = "document"
		}
	}

	var node document.Node
	id := inventory.Identity{Name: root}
	src := cargoline.NewBytesSource(data)

	switch from {
	case "json":
		im := json.NewImporter(json.Options{
			Namespaces:         opts.namespaces,
			SkipUnknown:        opts.skipUnknown,
			FailOnMissing:      opts.failOnMissing,
			EveryEntryRequired: opts.everyRequired,
		})
		if err := im.Receive(&node, id, src); err != nil {
			return fmt.Errorf("import %s: %w", from, err)
		}
	case "xml":
		im := xml.NewImporter(xml.Options{
			Namespaces:         opts.namespaces,
			SkipUnknown:        opts.skipUnknown,
			FailOnMissing:      opts.failOnMissing,
			EveryEntryRequired: opts.everyRequired,
		})
		if err := im.Receive(&node, id, src); err != nil {
			return fmt.Errorf("import %s: %w", from, err)
		}
	default:
		return fmt.Errorf("unknown input format %q", from)
	}

	if interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return fmt.Errorf("interactive mode needs a terminal")
		}
		return runInteractive(node.Cargo(), root)
	}

	out, closeOut, err := openOutput(outFile)
	if err != nil {
		return err
	}
	defer closeOut()

	switch to {
	case "json":
		ex := json.NewExporter(json.Options{
			Tabbed:             opts.tabbed,
			LineFeeds:          opts.lineFeeds,
			Namespaces:         opts.namespaces,
			EveryEntryRequired: opts.everyRequired,
		})
		if err := ex.Send(node.Cargo(), id, out); err != nil {
			return fmt.Errorf("export %s: %w", to, err)
		}
	case "xml":
		ex := xml.NewExporter(xml.Options{
			Tabbed:             opts.tabbed,
			LineFeeds:          opts.lineFeeds,
			Namespaces:         opts.namespaces,
			Prolog:             opts.prolog,
			EveryEntryRequired: opts.everyRequired,
		})
		if err := ex.Send(node.Cargo(), id, out); err != nil {
			return fmt.Errorf("export %s: %w", to, err)
		}
	default:
		return fmt.Errorf("unknown output format %q", to)
	}
	return nil
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}

func openOutput(path string) (*os.File, func(), error) {
	if path == "" || path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create file: %w", err)
	}
	return f, func() { f.Close() }, nil
}

// resolveFormat picks the input format: explicit flag, then file
// extension, then the document's first significant byte.
func resolveFormat(explicit, path string, data []byte) string {
	if explicit != "" {
		return explicit
	}
	if f := formatFromPath(path); f != "" {
		return f
	}
	for _, b := range data {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		case '<':
			return "xml"
		default:
			return "json"
		}
	}
	return "json"
}

func formatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".xml":
		return "xml"
	}
	return ""
}

// rootTag scans for the document's root element name so XML imports can
// match it without a -root flag.
func rootTag(data []byte) string {
	for i := 0; i < len(data); i++ {
		if data[i] != '<' {
			continue
		}
		if i+1 >= len(data) || data[i+1] == '?' || data[i+1] == '!' || data[i+1] == '/' {
			continue
		}
		j := i + 1
		for j < len(data) && isNamePart(data[j]) {
			j++
		}
		if j > i+1 {
			return string(data[i+1 : j])
		}
	}
	return ""
}

func isNamePart(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	case b == '_' || b == ':' || b == '-' || b == '.':
		return true
	case b >= 0x80:
		return true
	}
	return false
}
