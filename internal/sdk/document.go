package sdk

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Op kinds recorded by Document
const (
	OpGlobal = "global"
	OpScript = "script"
	OpInvoke = "invoke"
)

// Op is one DOM side effect, replayed in the browser by the showcase page
type Op struct {
	Kind   string          `json:"op"`
	Name   string          `json:"name,omitempty"`
	Value  json.RawMessage `json:"value,omitempty"`
	Script *ScriptOp       `json:"script,omitempty"`
	Call   *CallOp         `json:"call,omitempty"`
}

// ScriptOp is the wire form of Script
type ScriptOp struct {
	ID          string `json:"id"`
	Src         string `json:"src"`
	Async       bool   `json:"async"`
	CrossOrigin string `json:"crossOrigin"`
	OnLoad      CallOp `json:"onload"`
}

// CallOp is the wire form of Call
type CallOp struct {
	Function string `json:"fn"`
	Arg      string `json:"arg"`
}

// Document is a Page that records side effects instead of performing them.
// Pending ops are drained with Flush.
type Document struct {
	mu       sync.Mutex
	elements map[string]bool
	pending  []Op
}

var _ Page = (*Document)(nil)

// NewDocument creates an empty document
func NewDocument() *Document {
	return &Document{elements: make(map[string]bool)}
}

// Reload forgets injected elements and pending ops, like a fresh page load
func (d *Document) Reload() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.elements = make(map[string]bool)
	d.pending = nil
}

func (d *Document) HasElement(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.elements[id]
}

func (d *Document) AppendScript(s Script) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.elements[s.ID] {
		return fmt.Errorf("element %q already exists", s.ID)
	}
	d.elements[s.ID] = true
	d.pending = append(d.pending, Op{
		Kind: OpScript,
		Script: &ScriptOp{
			ID:          s.ID,
			Src:         s.Src,
			Async:       s.Async,
			CrossOrigin: s.CrossOrigin,
			OnLoad:      CallOp(s.OnLoad),
		},
	})
	return nil
}

func (d *Document) SetGlobal(name string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = append(d.pending, Op{Kind: OpGlobal, Name: name, Value: raw})
	return nil
}

func (d *Document) Invoke(c Call) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	call := CallOp(c)
	d.pending = append(d.pending, Op{Kind: OpInvoke, Call: &call})
	return nil
}

// Flush returns and clears the pending ops
func (d *Document) Flush() []Op {
	d.mu.Lock()
	defer d.mu.Unlock()
	ops := d.pending
	d.pending = nil
	if ops == nil {
		ops = []Op{}
	}
	return ops
}
