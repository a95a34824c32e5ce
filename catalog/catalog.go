// Package catalog holds the sample sketches the front ends offer: a
// built-in set compiled into the binary plus optional file or URL
// overrides. Samples are addressed by stable id; Search ranks fuzzily
// so partial queries still land.
package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/easelhq/easel/errors"
)

//go:embed samples.yaml
var defaultSamples []byte

// Sample is one catalogue entry. Source is the sketch text shown in the
// editor; Module optionally points at precompiled bytecode for it, as a
// file path or URL. Goal, when set, is a transcript substring that marks
// the exercise as solved.
type Sample struct {
	ID     string `yaml:"id"`
	Title  string `yaml:"title"`
	Course string `yaml:"course"`
	Source string `yaml:"source"`
	Module string `yaml:"module,omitempty"`
	Goal   string `yaml:"goal,omitempty"`
}

// Catalog is an ordered, id-addressable sample set.
type Catalog struct {
	samples []Sample
	byID    map[string]int
}

// Default returns the built-in sample set.
func Default() *Catalog {
	c, err := Parse(defaultSamples)
	if err != nil {
		// The embedded set ships with the binary.
		panic(err)
	}
	return c
}

// Parse builds a catalogue from YAML. Every entry needs an id and a
// title; ids must be unique.
func Parse(data []byte) (*Catalog, error) {
	var doc struct {
		Samples []Sample `yaml:"samples"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Load("parse sample catalogue", err)
	}
	c := &Catalog{byID: make(map[string]int, len(doc.Samples))}
	for i, s := range doc.Samples {
		if s.ID == "" {
			return nil, errors.Load(fmt.Sprintf("sample %d has no id", i), nil)
		}
		if s.Title == "" {
			return nil, errors.Load(fmt.Sprintf("sample %q has no title", s.ID), nil)
		}
		if _, dup := c.byID[s.ID]; dup {
			return nil, errors.Load(fmt.Sprintf("duplicate sample id %q", s.ID), nil)
		}
		c.byID[s.ID] = len(c.samples)
		c.samples = append(c.samples, s)
	}
	return c, nil
}

// Open loads a catalogue from a file path or an http(s) URL.
func Open(ctx context.Context, source string) (*Catalog, error) {
	data, err := read(ctx, source)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func read(ctx context.Context, source string) ([]byte, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, errors.Transport(fmt.Sprintf("request catalogue %s", source), err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, errors.Transport(fmt.Sprintf("fetch catalogue %s", source), err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, errors.Transport(fmt.Sprintf("fetch catalogue %s: status %d", source, resp.StatusCode), nil)
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, errors.Transport(fmt.Sprintf("read catalogue %s", source), err)
		}
		return data, nil
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return nil, errors.Transport(fmt.Sprintf("read catalogue %s", source), err)
	}
	return data, nil
}

// Lookup returns the sample with the given id.
func (c *Catalog) Lookup(id string) (Sample, error) {
	i, ok := c.byID[id]
	if !ok {
		return Sample{}, errors.NotFound("sample", id)
	}
	return c.samples[i], nil
}

// List returns all samples in catalogue order.
func (c *Catalog) List() []Sample {
	out := make([]Sample, len(c.samples))
	copy(out, c.samples)
	return out
}

// Len reports the number of samples.
func (c *Catalog) Len() int {
	return len(c.samples)
}
