// Package filter holds the user-adjustable query parameters of one
// visualization: an ordered set of typed items, each with an optional pure
// validator.
package filter

import (
	"slices"
	"time"

	"github.com/opengamedata/ogdviz/errors"
)

// Item is one adjustable parameter.
type Item struct {
	Name      string
	Input     InputMode
	Mode      ValueMode
	Initial   Value
	Options   []string // dropdown choices
	Validator *Validator
}

// Model is an ordered list of uniquely named items. Order is display and validation order.
type Model struct {
	name  string
	items []Item
	index map[string]int
	clock func() time.Time
}

// New returns an empty model.
func New(name string) *Model {
	return &Model{
		name:  name,
		index: make(map[string]int),
		clock: time.Now,
	}
}

// WithClock replaces the time source used by Validate.
func (m *Model) WithClock(clock func() time.Time) *Model {
	m.clock = clock
	return m
}

// Name is the owning visualizer's name.
func (m *Model) Name() string { return m.name }

// AddItem appends item. A repeated name returns *DuplicateNameError.
func (m *Model) AddItem(item Item) error {
	if item.Name == "" {
		return errors.NewInvalidRequestError("filter item has no name")
	}
	if _, exists := m.index[item.Name]; exists {
		return &DuplicateNameError{Model: m.name, Name: item.Name}
	}
	m.index[item.Name] = len(m.items)
	m.items = append(m.items, item)
	return nil
}

// MustAddItem is AddItem for statically known item lists.
func (m *Model) MustAddItem(item Item) *Model {
	if err := m.AddItem(item); err != nil {
		panic(err)
	}
	return m
}

// Items returns the items in order.
func (m *Model) Items() []Item {
	return slices.Clone(m.items)
}

// Item looks up an item by name.
func (m *Model) Item(name string) (Item, bool) {
	i, ok := m.index[name]
	if !ok {
		return Item{}, false
	}
	return m.items[i], true
}

// InitialState returns every non-separator item's initial value.
func (m *Model) InitialState() State {
	state := make(State, len(m.items))
	for _, item := range m.items {
		if item.Input != Separator {
			state[item.Name] = item.Initial
		}
	}
	return state
}

// Result is the outcome of Validate. Item and Message describe the first failure.
type Result struct {
	OK      bool
	Item    string
	Message string
}

// Err converts a failed result into a *ValidationError, nil when OK.
func (r Result) Err() error {
	if r.OK {
		return nil
	}
	return &ValidationError{Item: r.Item, Message: r.Message}
}

// Validate runs validators in declaration order and stops at the first failure.
// Items absent from state are validated as their zero Value.
func (m *Model) Validate(state State) Result {
	now := m.clock()
	for _, item := range m.items {
		if item.Validator == nil || item.Input == Separator {
			continue
		}
		if ok, msg := item.Validator.Validate(state[item.Name], now); !ok {
			return Result{Item: item.Name, Message: msg}
		}
	}
	return Result{OK: true}
}
