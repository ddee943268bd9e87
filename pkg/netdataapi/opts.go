// SPDX-License-Identifier: GPL-3.0-or-later

package netdataapi

// ChartOpts contains all options needed to create a chart
type ChartOpts struct {
	TypeID      string
	ID          string
	Name        string
	Title       string
	Units       string
	Family      string
	Context     string
	ChartType   string
	Priority    int
	UpdateEvery int
	Options     string
	Plugin      string
	Module      string
}

// DimensionOpts contains all options needed to create a dimension
type DimensionOpts struct {
	ID         string
	Name       string
	Algorithm  string
	Multiplier int
	Divisor    int
	Options    string
}

const (
	LabelSourceAuto = 1 << 0
	LabelSourceConf = 1 << 1
)
