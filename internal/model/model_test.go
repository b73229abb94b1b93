package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

func sampleProcess() Process {
	return Process{
		Label:         "regs",
		Line:          12,
		IsSynchronous: true,
		ClockSignals: []ClockSignal{
			{
				SignalRef:           SignalRef{Name: "clk"},
				HasSynchronousReset: true,
				ResetSignals:        []ResetSignal{{SignalRef: SignalRef{Name: "rst"}}},
			},
			{
				SignalRef:    SignalRef{Name: "clk2"},
				ResetSignals: []ResetSignal{{SignalRef: SignalRef{Name: "ignored"}}},
			},
		},
		SensitivityList: []Sensitivity{
			{SignalRef: SignalRef{Name: "clk"}},
			{SignalRef: SignalRef{Name: "d(1)", IsPartOfVector: true, VectorName: "d", Left: 1, Right: 1}},
		},
	}
}

func names(refs []SignalRef) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		out = append(out, r.String())
	}
	return out
}

func TestProcessRequiredSignals(t *testing.T) {
	assert.Equal(t, []string{"clk", "rst", "clk2"}, names(sampleProcess().RequiredSignals()))
}

func TestProcessSensitivityRefs(t *testing.T) {
	refs := sampleProcess().SensitivityRefs()
	assert.Equal(t, []string{"clk", "d(1)"}, names(refs))
	assert.True(t, refs[1].VectorShaped())
	assert.False(t, refs[0].VectorShaped())

	assert.Empty(t, Process{}.SensitivityRefs())
}

func TestSignalRefSameName(t *testing.T) {
	ref := SignalRef{Name: "Data_In"}
	assert.True(t, ref.SameName("data_in"))
	assert.False(t, ref.SameName("data"))
}

func TestProjectStats(t *testing.T) {
	p := Project{
		"a.vhd": {Path: "a.vhd", Entities: []Entity{{
			Name: "a",
			Architectures: []Architecture{{
				Name:      "rtl",
				Processes: []Process{sampleProcess(), {Label: "comb"}},
			}},
		}}},
		"b.vhd": {Path: "b.vhd"},
	}

	assert.Equal(t, Stats{Files: 2, Entities: 1, Architectures: 1, Processes: 2, Synchronous: 1}, p.Stats())
}

func TestViolationDirection(t *testing.T) {
	assert.Equal(t, "missing", Violation{IsRequiredMissing: true}.Direction())
	assert.Equal(t, "unused", Violation{}.Direction())
}

// Embedded references are flattened in every encoding the tool writes.
func TestClockSignalEncodingIsFlat(t *testing.T) {
	clk := sampleProcess().ClockSignals[0]

	data, err := json.Marshal(clk)
	require.NoError(t, err)
	var asJSON map[string]any
	require.NoError(t, json.Unmarshal(data, &asJSON))
	assert.Equal(t, "clk", asJSON["name"])
	assert.Equal(t, true, asJSON["has_synchronous_reset"])

	data, err = yaml.Marshal(clk)
	require.NoError(t, err)
	var asYAML map[string]any
	require.NoError(t, yaml.Unmarshal(data, &asYAML))
	assert.Equal(t, "clk", asYAML["name"])

	data, err = msgpack.Marshal(clk)
	require.NoError(t, err)
	var back ClockSignal
	require.NoError(t, msgpack.Unmarshal(data, &back))
	assert.Equal(t, clk, back)
}
