package driver

import (
	"fmt"
	"reflect"
)

// ConfigItem is one named driver option: a display label plus its current,
// internally typed value.
type ConfigItem struct {
	Label string
	Value any
}

// ConfigTypeError reports an attempt to set an option to a value of the
// wrong type.
type ConfigTypeError struct {
	Option string
	Want   string
	Got    string
}

func (e *ConfigTypeError) Error() string {
	return fmt.Sprintf("cannot set option %q: value type %s does not match %s", e.Option, e.Got, e.Want)
}

// Config is an ordered set of driver options. Option order is the order the
// configuration surface presents them in.
type Config struct {
	keys  []string
	items map[string]ConfigItem
}

// NewConfig returns an empty option set.
func NewConfig() *Config {
	return &Config{items: make(map[string]ConfigItem)}
}

// Add appends an option. Re-adding an existing key replaces its item but
// keeps its position.
func (c *Config) Add(key, label string, value any) *Config {
	if _, ok := c.items[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.items[key] = ConfigItem{Label: label, Value: value}
	return c
}

// Keys returns the option names in presentation order.
func (c *Config) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Get returns the item for an option name.
func (c *Config) Get(key string) (ConfigItem, bool) {
	item, ok := c.items[key]
	return item, ok
}

// Set replaces an option's value. The new value must have exactly the type
// of the existing value; a mismatch raises a *ConfigTypeError naming the
// option.
func (c *Config) Set(key string, value any) error {
	item, ok := c.items[key]
	if !ok {
		return fmt.Errorf("unknown option %q", key)
	}

	want := reflect.TypeOf(item.Value)
	got := reflect.TypeOf(value)
	if want != got {
		return &ConfigTypeError{Option: key, Want: fmt.Sprint(want), Got: fmt.Sprint(got)}
	}

	c.items[key] = ConfigItem{Label: item.Label, Value: value}
	return nil
}

// Apply sets every override in turn, failing on the first bad option.
func (c *Config) Apply(overrides map[string]any) error {
	for key, value := range overrides {
		if err := c.Set(key, value); err != nil {
			return err
		}
	}
	return nil
}

// Typed getters. A missing option yields the zero value; drivers only ask
// for options they added themselves.

func (c *Config) String(key string) string {
	v, _ := c.items[key].Value.(string)
	return v
}

func (c *Config) Int(key string) int {
	v, _ := c.items[key].Value.(int)
	return v
}

func (c *Config) Float(key string) float64 {
	v, _ := c.items[key].Value.(float64)
	return v
}

func (c *Config) Bool(key string) bool {
	v, _ := c.items[key].Value.(bool)
	return v
}

func (c *Config) Ints(key string) []int {
	v, _ := c.items[key].Value.([]int)
	return v
}

func (c *Config) Floats(key string) []float64 {
	v, _ := c.items[key].Value.([]float64)
	return v
}

func (c *Config) Strings(key string) []string {
	v, _ := c.items[key].Value.([]string)
	return v
}
