// SPDX-License-Identifier: GPL-3.0-or-later

package sink

import (
	"bytes"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/netdata/netdata/go/redisdb/pkg/netdataapi"
)

const (
	precision       = 1000
	defaultPriority = 70000
)

var (
	idReplacer  = strings.NewReplacer(".", "_", " ", "_", ":", "_", "/", "_", "'", "")
	lblReplacer = strings.NewReplacer("'", "")
)

type NetdataConfig struct {
	PluginName  string
	ModuleName  string
	JobName     string
	UpdateEvery int
	// BaseTags are the tags every sample of the job carries.
	// Tags outside this set become part of the chart ID.
	BaseTags []string
}

// NewNetdata returns a Sink that renders samples as Netdata plugin protocol charts.
// Output is buffered until WriteTo is called.
func NewNetdata(cfg NetdataConfig) *Netdata {
	nd := &Netdata{
		pluginName:  cfg.PluginName,
		moduleName:  cfg.ModuleName,
		typeID:      cfg.ModuleName + "_" + idReplacer.Replace(cfg.JobName),
		jobName:     cfg.JobName,
		updateEvery: cfg.UpdateEvery,
		baseTags:    slices.Clone(cfg.BaseTags),
		priority:    defaultPriority,
		charts:      make(map[string]*chart),
		chartIDs:    make(map[string]bool),
	}
	nd.api = netdataapi.New(&nd.buf)
	return nd
}

// Netdata gauges map to 'absolute' dimensions and rates to 'incremental' ones,
// so Netdata itself computes the per-second derivative of rates.
// It is not safe for concurrent use; each job owns one.
type Netdata struct {
	pluginName  string
	moduleName  string
	typeID      string
	jobName     string
	updateEvery int
	baseTags    []string
	priority    int

	buf      bytes.Buffer
	api      *netdataapi.API
	charts   map[string]*chart
	chartIDs map[string]bool
}

type chart struct {
	id    string
	dimID string
}

func (n *Netdata) Gauge(name string, value float64, tags []string) {
	n.set(Sample{Name: name, Kind: KindGauge, Value: value, Tags: tags})
}

func (n *Netdata) Rate(name string, value float64, tags []string) {
	n.set(Sample{Name: name, Kind: KindRate, Value: value, Tags: tags})
}

// WriteTo copies the buffered protocol output to w in a single write.
func (n *Netdata) WriteTo(w io.Writer) (int64, error) {
	if n.buf.Len() == 0 {
		return 0, nil
	}
	defer n.buf.Reset()
	written, err := w.Write(n.buf.Bytes())
	return int64(written), err
}

// Obsolete marks every created chart obsolete.
func (n *Netdata) Obsolete() {
	for _, c := range n.charts {
		n.api.CHART(netdataapi.ChartOpts{
			TypeID:      n.typeID,
			ID:          c.id,
			UpdateEvery: n.updateEvery,
			Options:     "obsolete",
			Plugin:      n.pluginName,
			Module:      n.moduleName,
		})
	}
	clear(n.charts)
	clear(n.chartIDs)
}

func (n *Netdata) set(s Sample) {
	c := n.chart(s)

	n.api.BEGIN(n.typeID, c.id, 0)
	n.api.SET(c.dimID, int64(math.Round(s.Value*precision)))
	n.api.END()
}

func (n *Netdata) chart(s Sample) *chart {
	extra := n.extraTags(s.Tags)
	key := s.Name + "|" + strings.Join(extra, ",")

	if c, ok := n.charts[key]; ok {
		return c
	}

	id := strings.TrimPrefix(s.Name, "redis.")
	if len(extra) > 0 {
		id += "_" + strings.Join(extra, "_")
	}
	c := &chart{
		id:    n.uniqueID(idReplacer.Replace(id)),
		dimID: idReplacer.Replace(lastSegment(s.Name)),
	}
	n.charts[key] = c
	n.create(c, s)

	return c
}

// uniqueID suffixes id when a different sample already sanitized to it,
// e.g. lists 'a.b' and 'a_b'.
func (n *Netdata) uniqueID(id string) string {
	uid := id
	for i := 2; n.chartIDs[uid]; i++ {
		uid = id + "_" + strconv.Itoa(i)
	}
	n.chartIDs[uid] = true
	return uid
}

func (n *Netdata) create(c *chart, s Sample) {
	algo := "absolute"
	if s.Kind == KindRate {
		algo = "incremental"
	}

	n.api.CHART(netdataapi.ChartOpts{
		TypeID:      n.typeID,
		ID:          c.id,
		Title:       s.Name,
		Units:       units(s),
		Family:      family(s.Name),
		Context:     n.moduleName + "." + strings.TrimPrefix(s.Name, "redis."),
		ChartType:   "line",
		Priority:    n.priority,
		UpdateEvery: n.updateEvery,
		Plugin:      n.pluginName,
		Module:      n.moduleName,
	})
	n.priority++

	for _, tag := range s.Tags {
		k, v := SplitTag(tag)
		if k == "" {
			continue
		}
		n.api.CLABEL(lblReplacer.Replace(k), lblReplacer.Replace(v), netdataapi.LabelSourceConf)
	}
	n.api.CLABEL("_collect_job", lblReplacer.Replace(n.jobName), netdataapi.LabelSourceAuto)
	n.api.CLABELCOMMIT()

	n.api.DIMENSION(netdataapi.DimensionOpts{
		ID:         c.dimID,
		Name:       c.dimID,
		Algorithm:  algo,
		Multiplier: 1,
		Divisor:    precision,
	})
}

func (n *Netdata) extraTags(tags []string) []string {
	var extra []string
	for _, t := range tags {
		if !slices.Contains(n.baseTags, t) {
			extra = append(extra, t)
		}
	}
	slices.Sort(extra)
	return extra
}

func units(s Sample) string {
	switch {
	case strings.HasSuffix(s.Name, "_ratio"):
		return "percentage"
	case strings.HasSuffix(s.Name, "_ms"):
		return "milliseconds"
	case s.Kind == KindRate:
		return "events/s"
	default:
		return "value"
	}
}

func family(name string) string {
	parts := strings.Split(strings.TrimPrefix(name, "redis."), ".")
	if len(parts) < 2 {
		return "keyspace"
	}
	return parts[0]
}

func lastSegment(name string) string {
	if i := strings.LastIndexByte(name, '.'); i != -1 {
		return name[i+1:]
	}
	return name
}
