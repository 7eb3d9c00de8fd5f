package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/terravue/terravue-pixel-poc/internal/driver"
)

// Configure shows the driver's configuration and optionally changes one
// option. Changes reopen the dataset, since options shape discovery and
// indexing.
func Configure(s *session) {
	if !requireDriver(s) {
		return
	}

	cfg := s.drv.Config()
	keys := cfg.Keys()
	fmt.Printf("%s\nConfiguration:%s\n", ColorGreen, ColorReset)
	for i, key := range keys {
		item, _ := cfg.Get(key)
		fmt.Printf("%s%d. %s (%s) = %v%s\n", ColorGreen, i+1, item.Label, key, item.Value, ColorReset)
	}

	choice := ReadString("Enter the option number to change, or nothing to go back: ")
	if choice == "" {
		return
	}
	idx, err := strconv.Atoi(choice)
	if err != nil || idx < 1 || idx > len(keys) {
		PrintError("Invalid option number.")
		return
	}
	key := keys[idx-1]
	item, _ := cfg.Get(key)

	raw := ReadString(fmt.Sprintf("Enter the new value for %s: ", key))
	value, err := parseConfigValue(item.Value, raw)
	if err != nil {
		PrintError(err.Error())
		return
	}

	overrides := map[string]any{}
	for _, k := range keys {
		it, _ := cfg.Get(k)
		overrides[k] = it.Value
	}
	overrides[key] = value

	drv, err := driver.New(s.name, s.drv.Location(), overrides)
	if err != nil {
		PrintError(fmt.Sprintf("Failed to reopen dataset: %s", err.Error()))
		return
	}
	s.drv.Close()
	s.drv = drv
	PrintSuccess(fmt.Sprintf("Set %s to %v and reopened the dataset.", key, value))
}

// parseConfigValue converts raw text to the type of the current value, so
// the typed configuration check passes. Lists are comma separated.
func parseConfigValue(current any, raw string) (any, error) {
	switch current.(type) {
	case string:
		return raw, nil
	case bool:
		return strconv.ParseBool(raw)
	case int:
		return strconv.Atoi(raw)
	case float64:
		return strconv.ParseFloat(raw, 64)
	case []string:
		return splitList(raw), nil
	case []int:
		var out []int
		for _, part := range splitList(raw) {
			v, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("invalid number: %s", part)
			}
			out = append(out, v)
		}
		return out, nil
	case []float64:
		var out []float64
		for _, part := range splitList(raw) {
			v, err := strconv.ParseFloat(part, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid number: %s", part)
			}
			out = append(out, v)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("cannot edit option of type %T", current)
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		out = append(out, strings.TrimSpace(part))
	}
	return out
}
