// SPDX-License-Identifier: GPL-3.0-or-later

package sink

import (
	"slices"
	"strings"
	"sync"
)

type Kind int

const (
	// KindGauge is a point-in-time value submitted as-is.
	KindGauge Kind = iota
	// KindRate is a cumulative counter; the receiving side computes the per-second derivative.
	KindRate
)

func (k Kind) String() string {
	switch k {
	case KindRate:
		return "rate"
	default:
		return "gauge"
	}
}

type Sample struct {
	Name  string
	Kind  Kind
	Value float64
	Tags  []string
}

// Sink accepts metric samples.
type Sink interface {
	Gauge(name string, value float64, tags []string)
	Rate(name string, value float64, tags []string)
}

// Batch holds samples until they are flushed to another Sink.
// A Batch is not safe for concurrent use.
type Batch struct {
	samples []Sample
}

func (b *Batch) Gauge(name string, value float64, tags []string) {
	b.samples = append(b.samples, Sample{Name: name, Kind: KindGauge, Value: value, Tags: slices.Clone(tags)})
}

func (b *Batch) Rate(name string, value float64, tags []string) {
	b.samples = append(b.samples, Sample{Name: name, Kind: KindRate, Value: value, Tags: slices.Clone(tags)})
}

func (b *Batch) Len() int { return len(b.samples) }

func (b *Batch) Samples() []Sample { return b.samples }

// Flush submits the buffered samples to dst in the order they were added and empties the batch.
func (b *Batch) Flush(dst Sink) {
	for _, s := range b.samples {
		submit(dst, s)
	}
	b.samples = b.samples[:0]
}

// Recorder is an in-memory Sink safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	samples []Sample
}

func (r *Recorder) Gauge(name string, value float64, tags []string) {
	r.add(Sample{Name: name, Kind: KindGauge, Value: value, Tags: slices.Clone(tags)})
}

func (r *Recorder) Rate(name string, value float64, tags []string) {
	r.add(Sample{Name: name, Kind: KindRate, Value: value, Tags: slices.Clone(tags)})
}

func (r *Recorder) add(s Sample) {
	r.mu.Lock()
	r.samples = append(r.samples, s)
	r.mu.Unlock()
}

func (r *Recorder) Samples() []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.samples)
}

// Find returns the samples with the given name, optionally narrowed to those carrying all the given tags.
func (r *Recorder) Find(name string, tags ...string) []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()

	var found []Sample
	for _, s := range r.samples {
		if s.Name == name && hasTags(s.Tags, tags) {
			found = append(found, s)
		}
	}
	return found
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.samples = nil
	r.mu.Unlock()
}

func submit(dst Sink, s Sample) {
	switch s.Kind {
	case KindRate:
		dst.Rate(s.Name, s.Value, s.Tags)
	default:
		dst.Gauge(s.Name, s.Value, s.Tags)
	}
}

func hasTags(have, want []string) bool {
	for _, t := range want {
		if !slices.Contains(have, t) {
			return false
		}
	}
	return true
}

// SplitTag splits a "key:value" tag. A tag without ':' is returned as the key with an empty value.
func SplitTag(tag string) (key, value string) {
	key, value, _ = strings.Cut(tag, ":")
	return key, value
}
