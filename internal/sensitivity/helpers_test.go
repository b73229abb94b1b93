package sensitivity

import (
	"fmt"

	"github.com/robert-at-pretension-io/vhdl-senscheck/internal/model"
)

func scalar(name string, line int) model.SignalRef {
	return model.SignalRef{Name: name, Location: model.Location{Line: line}}
}

// vector is a whole-vector reference "name" declared (left downto right).
func vector(name string, left, right int, line int) model.SignalRef {
	return model.SignalRef{
		Name:       name,
		IsVector:   true,
		VectorName: name,
		Left:       left,
		Right:      right,
		Location:   model.Location{Line: line},
	}
}

func bit(vectorName string, i int, line int) model.SignalRef {
	return model.SignalRef{
		Name:           BitName(vectorName, i),
		IsPartOfVector: true,
		VectorName:     vectorName,
		Left:           i,
		Right:          i,
		Location:       model.Location{Line: line},
	}
}

func slice(vectorName string, left, right int, line int) model.SignalRef {
	return model.SignalRef{
		Name:           fmt.Sprintf("%s(%d downto %d)", vectorName, left, right),
		IsPartOfVector: true,
		VectorName:     vectorName,
		Left:           left,
		Right:          right,
		Location:       model.Location{Line: line},
	}
}

func clock(ref model.SignalRef, resets ...model.SignalRef) model.ClockSignal {
	c := model.ClockSignal{SignalRef: ref}
	for _, r := range resets {
		c.HasSynchronousReset = true
		c.ResetSignals = append(c.ResetSignals, model.ResetSignal{SignalRef: r})
	}
	return c
}

func sensitivities(refs ...model.SignalRef) []model.Sensitivity {
	out := make([]model.Sensitivity, 0, len(refs))
	for _, r := range refs {
		out = append(out, model.Sensitivity{SignalRef: r})
	}
	return out
}

func syncProcess(label string, clocks []model.ClockSignal, list ...model.SignalRef) model.Process {
	return model.Process{
		Label:           label,
		Line:            10,
		IsSynchronous:   true,
		ClockSignals:    clocks,
		SensitivityList: sensitivities(list...),
	}
}

func fileWith(path string, procs ...model.Process) model.File {
	return model.File{
		Path: path,
		Entities: []model.Entity{{
			Name: "top",
			Line: 1,
			Architectures: []model.Architecture{{
				Name:       "rtl",
				EntityName: "top",
				Line:       5,
				Processes:  procs,
			}},
		}},
	}
}

var testScope = Scope{File: "top.vhd", Entity: "top", Architecture: "rtl", Process: "p"}
