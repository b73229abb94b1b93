package sensitivity

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-at-pretension-io/vhdl-senscheck/internal/model"
)

func TestCheckProcessScenarios(t *testing.T) {
	tests := []struct {
		name string
		proc model.Process
		want []model.Violation
	}{
		{
			name: "clock only, listed",
			proc: syncProcess("p", []model.ClockSignal{clock(scalar("clk", 12))}, scalar("clk", 10)),
			want: nil,
		},
		{
			name: "synchronous reset not listed",
			proc: syncProcess("p",
				[]model.ClockSignal{clock(scalar("clk", 14), scalar("rst", 12))},
				scalar("clk", 10)),
			want: []model.Violation{
				testScope.violation(12, "rst", true, false),
			},
		},
		{
			name: "unused entry",
			proc: syncProcess("p",
				[]model.ClockSignal{clock(scalar("clk", 12))},
				scalar("clk", 10), scalar("unused_sig", 10)),
			want: []model.Violation{
				testScope.violation(10, "unused_sig", false, false),
			},
		},
		{
			name: "vector clock missing one bit",
			proc: syncProcess("p",
				[]model.ClockSignal{clock(vector("data", 3, 0, 12))},
				bit("data", 3, 10), bit("data", 2, 10), bit("data", 0, 10)),
			want: []model.Violation{
				testScope.violation(12, "data(1)", true, true),
			},
		},
		{
			name: "whole vector absent",
			proc: syncProcess("p",
				[]model.ClockSignal{clock(vector("data", 3, 0, 12))},
				scalar("clk", 10)),
			want: []model.Violation{
				testScope.violation(12, "data", true, true),
				testScope.violation(10, "clk", false, false),
			},
		},
		{
			name: "listed bit outside required vector",
			proc: syncProcess("p",
				[]model.ClockSignal{clock(slice("d", 3, 2, 12))},
				bit("d", 3, 10), bit("d", 2, 10), bit("d", 0, 10)),
			want: []model.Violation{
				testScope.violation(10, "d(0)", false, true),
			},
		},
		{
			name: "listed slice partially required",
			proc: syncProcess("p",
				[]model.ClockSignal{clock(bit("d", 1, 12))},
				slice("d", 2, 0, 10)),
			want: []model.Violation{
				testScope.violation(10, "d(0)", false, true),
				testScope.violation(10, "d(2)", false, true),
			},
		},
		{
			name: "reset without synchronous flag is not required",
			proc: model.Process{
				Label:         "p",
				Line:          10,
				IsSynchronous: true,
				ClockSignals: []model.ClockSignal{{
					SignalRef:    scalar("clk", 12),
					ResetSignals: []model.ResetSignal{{SignalRef: scalar("rst", 12)}},
				}},
				SensitivityList: sensitivities(scalar("clk", 10), scalar("rst", 10)),
			},
			want: []model.Violation{
				testScope.violation(10, "rst", false, false),
			},
		},
		{
			name: "combinational process skipped",
			proc: model.Process{
				Label:           "p",
				Line:            10,
				SensitivityList: sensitivities(scalar("a", 10), scalar("b", 10)),
			},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckProcess(testScope, tt.proc)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckProcessResetMatchedIndependently(t *testing.T) {
	// clock fully missing, reset present: only the clock is reported
	proc := syncProcess("p",
		[]model.ClockSignal{clock(scalar("clk", 14), vector("rst", 1, 0, 12))},
		bit("rst", 0, 10), bit("rst", 1, 10))

	got := CheckProcess(testScope, proc)
	require.Len(t, got, 1)
	assert.Equal(t, "clk", got[0].Signal)
	assert.True(t, got[0].IsRequiredMissing)
}

func TestCheckProcessMultipleClocks(t *testing.T) {
	proc := syncProcess("p",
		[]model.ClockSignal{
			clock(scalar("clk_a", 12), scalar("rst_a", 12)),
			clock(scalar("clk_b", 20)),
		},
		scalar("clk_a", 10), scalar("rst_a", 10))

	got := CheckProcess(testScope, proc)
	require.Len(t, got, 1)
	assert.Equal(t, testScope.violation(20, "clk_b", true, false), got[0])
}

// Every required-missing violation names a required signal or one of its
// bits, and every unused violation names a listed entry or one of its bits.
func TestCheckProcessDirectionSets(t *testing.T) {
	clocks := []model.ClockSignal{
		clock(vector("q", 3, 0, 12), scalar("srst", 13)),
		clock(scalar("clk2", 20)),
	}
	proc := syncProcess("p", clocks,
		bit("q", 3, 10), bit("q", 1, 10), scalar("clk2", 10), scalar("en", 10), vector("w", 1, 0, 10))

	got := CheckProcess(testScope, proc)

	var missing, unused []string
	for _, v := range got {
		if v.IsRequiredMissing {
			missing = append(missing, v.Signal)
		} else {
			unused = append(unused, v.Signal)
		}
	}
	assert.Equal(t, []string{"q(0)", "q(2)", "srst"}, missing)
	assert.Equal(t, []string{"en", "w"}, unused)

	for _, v := range got {
		if v.Signal == "w" {
			assert.True(t, v.IsVectorRelated)
		}
		if v.Signal == "en" || v.Signal == "srst" {
			assert.False(t, v.IsVectorRelated)
		}
	}
}

func TestProcessName(t *testing.T) {
	assert.Equal(t, "reg_p", ProcessName(model.Process{Label: "reg_p", Line: 3}))
	assert.Equal(t, "process@42", ProcessName(model.Process{Line: 42}))
}

func TestCheckFileSkipsEmpty(t *testing.T) {
	assert.Empty(t, CheckFile("a.vhd", model.File{Path: "a.vhd"}))
	assert.Empty(t, CheckFile("a.vhd", model.File{
		Path:     "a.vhd",
		Entities: []model.Entity{{Name: "e"}, {Name: "f", Architectures: []model.Architecture{{Name: "rtl"}}}},
	}))
}

func TestCheckFileScope(t *testing.T) {
	f := fileWith("top.vhd",
		model.Process{Line: 30, IsSynchronous: true,
			ClockSignals:    []model.ClockSignal{clock(scalar("clk", 31))},
			SensitivityList: sensitivities(scalar("x", 30))},
	)

	got := CheckFile("lib/top.vhd", f)
	require.Len(t, got, 2)
	for _, v := range got {
		assert.Equal(t, "lib/top.vhd", v.FileName)
		assert.Equal(t, "top", v.Entity)
		assert.Equal(t, "rtl", v.Architecture)
		assert.Equal(t, "process@30", v.Process)
	}
	assert.True(t, got[0].IsRequiredMissing, "pass A precedes pass B")
	assert.False(t, got[1].IsRequiredMissing)
}

func sampleProject() model.Project {
	project := model.Project{}
	for i := range 12 {
		path := fmt.Sprintf("src/unit_%02d.vhd", i)
		project[path] = fileWith(path,
			syncProcess("ok", []model.ClockSignal{clock(scalar("clk", 12))}, scalar("clk", 10)),
			syncProcess("bad",
				[]model.ClockSignal{clock(vector("d", 3, 0, 22), scalar("rst", 21))},
				bit("d", 3, 20), bit("d", 0, 20), scalar(fmt.Sprintf("stray_%d", i), 20)),
		)
	}
	return project
}

func TestCheckerDeterministicAcrossParallelism(t *testing.T) {
	project := sampleProject()

	seq := NewChecker()
	want, err := seq.Check(context.Background(), project)
	require.NoError(t, err)
	require.Len(t, want, 12*4)

	for _, parallel := range []int{0, 2, 5, 16} {
		c := NewChecker()
		c.Parallel = parallel
		got, err := c.Check(context.Background(), project)
		require.NoError(t, err)
		assert.Equal(t, want, got, "parallel=%d", parallel)
	}
}

func TestCheckerIdempotent(t *testing.T) {
	project := sampleProject()
	c := NewChecker()
	c.Parallel = 4

	first, err := c.Check(context.Background(), project)
	require.NoError(t, err)
	second, err := c.Check(context.Background(), project)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCheckerOrdersFiles(t *testing.T) {
	got, err := NewChecker().Check(context.Background(), sampleProject())
	require.NoError(t, err)
	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, got[i-1].FileName, got[i].FileName)
	}
	assert.Equal(t, "src/unit_00.vhd", got[0].FileName)
}

func TestCheckerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewChecker().Check(ctx, sampleProject())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCheckerEmptyProject(t *testing.T) {
	got, err := NewChecker().Check(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
