package memory

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/aretw0/trawler/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Page is the scripted content of one URL.
// Elements and Links are keyed by Selector.String().
type Page struct {
	Elements map[string][]string `yaml:"elements" json:"elements"`
	Links    map[string]string   `yaml:"links" json:"links"`
}

// Fixtures is the file format read by LoadFixtures.
type Fixtures struct {
	Pages map[string]Page `yaml:"pages" json:"pages"`
}

// Call records one driver invocation, in order.
type Call struct {
	Op       domain.DriverOp
	URL      string
	Selector domain.Selector
	Text     string
	Multiple bool
}

// Target is the URL for navigate calls and the selector string otherwise.
func (c Call) Target() string {
	if c.Op == domain.OpNavigate {
		return c.URL
	}
	return c.Selector.String()
}

// Driver implements ports.Driver over scripted pages. Unknown selectors fail
// with domain.ElementNotFoundError; unknown URLs load an empty page.
// Safe for concurrent use.
type Driver struct {
	mu      sync.Mutex
	pages   map[string]Page
	current string
	calls   []Call
	faults  map[string]error
	inputs  map[string]string
}

// NewDriver creates a driver serving the given pages.
func NewDriver(pages map[string]Page) *Driver {
	if pages == nil {
		pages = make(map[string]Page)
	}
	return &Driver{
		pages:  pages,
		faults: make(map[string]error),
		inputs: make(map[string]string),
	}
}

// LoadFixtures reads page fixtures from a YAML (or JSON) file.
func LoadFixtures(path string) (map[string]Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures: %w", err)
	}
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixtures: %w", err)
	}
	return f.Pages, nil
}

// Fail makes every later call of op on target return err.
// Target is a URL for navigate and a Selector.String() otherwise.
func (d *Driver) Fail(op domain.DriverOp, target string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.faults[faultKey(op, target)] = err
}

// Calls returns a copy of the recorded calls.
func (d *Driver) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Call(nil), d.calls...)
}

// Called reports whether op was invoked on target.
func (d *Driver) Called(op domain.DriverOp, target string) bool {
	for _, c := range d.Calls() {
		if c.Op == op && c.Target() == target {
			return true
		}
	}
	return false
}

// Inputs returns the text written into each selector.
func (d *Driver) Inputs() map[string]string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]string, len(d.inputs))
	for k, v := range d.inputs {
		out[k] = v
	}
	return out
}

// CurrentURL returns the URL of the loaded page.
func (d *Driver) CurrentURL() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.begin(ctx, Call{Op: domain.OpNavigate, URL: url}); err != nil {
		return err
	}
	d.current = url
	return nil
}

func (d *Driver) Write(ctx context.Context, sel domain.Selector, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.begin(ctx, Call{Op: domain.OpWrite, Selector: sel, Text: text}); err != nil {
		return err
	}
	if _, err := d.lookup(sel); err != nil {
		return err
	}
	d.inputs[sel.String()] = text
	return nil
}

func (d *Driver) Read(ctx context.Context, sel domain.Selector, multiple bool) (any, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.begin(ctx, Call{Op: domain.OpRead, Selector: sel, Multiple: multiple}); err != nil {
		return nil, err
	}
	texts, err := d.lookup(sel)
	if err != nil {
		return nil, err
	}
	if multiple {
		return append([]string(nil), texts...), nil
	}
	return texts[0], nil
}

func (d *Driver) Click(ctx context.Context, sel domain.Selector) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.begin(ctx, Call{Op: domain.OpClick, Selector: sel}); err != nil {
		return err
	}
	if _, err := d.lookup(sel); err != nil {
		return err
	}
	if next, ok := d.pages[d.current].Links[sel.String()]; ok {
		d.current = next
	}
	return nil
}

func (d *Driver) Find(ctx context.Context, sel domain.Selector, multiple bool) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.begin(ctx, Call{Op: domain.OpFind, Selector: sel, Multiple: multiple}); err != nil {
		return 0, err
	}
	texts, err := d.lookup(sel)
	if err != nil {
		return 0, err
	}
	if !multiple {
		return 1, nil
	}
	return len(texts), nil
}

// begin records the call and returns an injected fault or a context error.
// Callers hold d.mu.
func (d *Driver) begin(ctx context.Context, c Call) error {
	d.calls = append(d.calls, c)
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.faults[faultKey(c.Op, c.Target())]
}

func (d *Driver) lookup(sel domain.Selector) ([]string, error) {
	texts := d.pages[d.current].Elements[sel.String()]
	if len(texts) == 0 {
		return nil, &domain.ElementNotFoundError{Selector: sel}
	}
	return texts, nil
}

func faultKey(op domain.DriverOp, target string) string {
	return string(op) + " " + target
}
