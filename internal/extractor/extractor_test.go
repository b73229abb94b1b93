package extractor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/robert-at-pretension-io/vhdl-senscheck/internal/model"
)

const registerVHDL = `library ieee;
use ieee.std_logic_1164.all;

entity top is
  port(
    clk   : in std_logic;
    rst_n : in std_logic;
    d     : in std_logic_vector(7 downto 0);
    q     : out std_logic_vector(7 downto 0)
  );
end entity;

architecture rtl of top is
  signal s1, s2 : std_logic_vector(3 downto 0);
  signal en : std_logic;
begin
  -- async reset register
  regs : process (clk, rst_n)
  begin
    if rst_n = '0' then
      q <= (others => '0');
    elsif rising_edge(clk) then
      if en = '1' then
        q <= d;
      end if;
    end if;
  end process regs;

  process(clk)
  begin
    if clk'event and clk = '1' then
      s1 <= d(3 downto 0);
    end if;
  end process;

  comb : process(all)
  begin
    s2 <= s1;
  end process;

  waiter : process
  begin
    wait until rising_edge(clk);
  end process;
end architecture;
`

func TestExtractRegisterFile(t *testing.T) {
	f := parseVHDL(t, registerVHDL)

	if len(f.Entities) != 1 || f.Entities[0].Name != "top" || f.Entities[0].Line != 4 {
		t.Fatalf("expected entity top at line 4, got %+v", f.Entities)
	}
	archs := f.Entities[0].Architectures
	if len(archs) != 1 || archs[0].Name != "rtl" || archs[0].EntityName != "top" || archs[0].Line != 13 {
		t.Fatalf("expected architecture rtl of top at line 13, got %+v", archs)
	}
	procs := archs[0].Processes
	if len(procs) != 4 {
		t.Fatalf("expected 4 processes, got %d", len(procs))
	}

	regs := procs[0]
	if regs.Label != "regs" || regs.Line != 18 || !regs.IsSynchronous {
		t.Fatalf("unexpected regs process: %+v", regs)
	}
	if got := sensitivityNames(regs); got != "clk,rst_n" {
		t.Fatalf("regs sensitivity = %q", got)
	}
	if len(regs.ClockSignals) != 1 {
		t.Fatalf("expected one clock, got %+v", regs.ClockSignals)
	}
	clk := regs.ClockSignals[0]
	if clk.Name != "clk" || clk.Location.Line != 22 || !clk.HasSynchronousReset {
		t.Fatalf("unexpected clock: %+v", clk)
	}
	if len(clk.ResetSignals) != 1 || clk.ResetSignals[0].Name != "rst_n" || clk.ResetSignals[0].Location.Line != 20 {
		t.Fatalf("unexpected resets: %+v", clk.ResetSignals)
	}

	unlabeled := procs[1]
	if unlabeled.Label != "" || unlabeled.Line != 29 || !unlabeled.IsSynchronous {
		t.Fatalf("unexpected unlabeled process: %+v", unlabeled)
	}
	if len(unlabeled.ClockSignals) != 1 || unlabeled.ClockSignals[0].Name != "clk" || unlabeled.ClockSignals[0].HasSynchronousReset {
		t.Fatalf("expected clk'event clock without reset, got %+v", unlabeled.ClockSignals)
	}

	if comb := procs[2]; comb.IsSynchronous || len(comb.SensitivityList) != 0 {
		t.Fatalf("process(all) must not be synchronous: %+v", comb)
	}
	if waiter := procs[3]; waiter.IsSynchronous || waiter.Label != "waiter" {
		t.Fatalf("wait-driven process must not be synchronous: %+v", waiter)
	}
}

func TestExtractVectorReferences(t *testing.T) {
	f := parseVHDL(t, `entity vec is
  port (clks : in std_logic_vector(1 downto 0);
        rst  : in std_logic_vector(0 to 1);
        d    : in std_logic_vector(7 downto 0));
end vec;

architecture a of vec is
begin
  p0 : process (clks(0), rst(1), d (3 downto 2), d)
  begin
    if rst(1) = '1' then
      null;
    elsif rising_edge(clks(0)) then
      null;
    end if;
  end process;
end a;
`)

	p := mustFindProcess(t, f, "p0")
	if len(p.SensitivityList) != 4 {
		t.Fatalf("expected 4 sensitivity entries, got %+v", p.SensitivityList)
	}

	bit := p.SensitivityList[0].SignalRef
	if bit.Name != "clks(0)" || !bit.IsPartOfVector || bit.VectorName != "clks" || bit.Left != 0 || bit.Right != 0 {
		t.Fatalf("unexpected bit entry: %+v", bit)
	}
	asc := p.SensitivityList[1].SignalRef
	if asc.Name != "rst(1)" || !asc.Ascending {
		t.Fatalf("expected ascending rst(1), got %+v", asc)
	}
	sl := p.SensitivityList[2].SignalRef
	if sl.Name != "d(3 downto 2)" || !sl.IsPartOfVector || sl.Left != 3 || sl.Right != 2 || sl.Ascending {
		t.Fatalf("unexpected slice entry: %+v", sl)
	}
	whole := p.SensitivityList[3].SignalRef
	if whole.Name != "d" || !whole.IsVector || whole.VectorName != "d" || whole.Left != 7 || whole.Right != 0 {
		t.Fatalf("unexpected whole vector entry: %+v", whole)
	}

	if len(p.ClockSignals) != 1 {
		t.Fatalf("expected one clock, got %+v", p.ClockSignals)
	}
	clk := p.ClockSignals[0]
	if clk.Name != "clks(0)" || !clk.IsPartOfVector {
		t.Fatalf("unexpected clock: %+v", clk)
	}
	if len(clk.ResetSignals) != 1 || clk.ResetSignals[0].Name != "rst(1)" {
		t.Fatalf("unexpected resets: %+v", clk.ResetSignals)
	}
}

func TestExtractResetInsideClockBranchIsNotRecorded(t *testing.T) {
	f := parseVHDL(t, `architecture rtl of sync_rst is
begin
  p : process (clk)
  begin
    if rising_edge(clk) then
      if srst = '1' then
        q <= '0';
      else
        q <= d;
      end if;
    end if;
  end process;
end rtl;
`)

	p := mustFindProcess(t, f, "p")
	if len(p.ClockSignals) != 1 || p.ClockSignals[0].HasSynchronousReset || len(p.ClockSignals[0].ResetSignals) != 0 {
		t.Fatalf("expected clk without reset, got %+v", p.ClockSignals)
	}
}

func TestExtractStandInEntity(t *testing.T) {
	f := parseVHDL(t, `-- architecture only
architecture sim of other is
begin
  process (clk) begin
    if falling_edge(clk) then end if;
  end process;
end sim;
`)

	if len(f.Entities) != 1 || f.Entities[0].Name != "other" || f.Entities[0].Line != 2 {
		t.Fatalf("expected stand-in entity other at line 2, got %+v", f.Entities)
	}
	if len(f.Entities[0].Architectures) != 1 || len(f.Entities[0].Architectures[0].Processes) != 1 {
		t.Fatalf("expected one architecture with one process, got %+v", f.Entities[0].Architectures)
	}
}

func TestExtractMultiLineSensitivityList(t *testing.T) {
	f := parseVHDL(t, `architecture rtl of e is
begin
  p : process (clk,
               arst,   -- asynchronous
               stray)
  begin
    if arst = '1' or clr = '1' then
      q <= '0';
    elsif rising_edge(clk) then
      q <= d;
    end if;
  end process p;
end rtl;
`)

	p := mustFindProcess(t, f, "p")
	lines := []int{3, 4, 5}
	for i, s := range p.SensitivityList {
		if s.Location.Line != lines[i] {
			t.Fatalf("entry %s at line %d, want %d", s.Name, s.Location.Line, lines[i])
		}
	}
	resets := p.ClockSignals[0].ResetSignals
	if len(resets) != 2 || resets[0].Name != "arst" || resets[1].Name != "clr" {
		t.Fatalf("expected resets arst and clr, got %+v", resets)
	}
}

func TestExtractIgnoresCommentsAndStrings(t *testing.T) {
	f := parseVHDL(t, `architecture rtl of e is
begin
  -- process (foo) begin if rising_edge(foo) then end if; end process;
  p : process (clk)
  begin
    if rising_edge(clk) then
      report "process (bar) elsif rising_edge(bar) then";
    end if;
  end process;
end rtl;
`)

	procs := f.Entities[0].Architectures[0].Processes
	if len(procs) != 1 {
		t.Fatalf("expected 1 process, got %d", len(procs))
	}
	if len(procs[0].ClockSignals) != 1 || procs[0].ClockSignals[0].Name != "clk" {
		t.Fatalf("unexpected clocks: %+v", procs[0].ClockSignals)
	}
}

func TestExtractMultipleClocks(t *testing.T) {
	f := parseVHDL(t, `architecture rtl of e is
begin
  p : process (clk_a, clk_b)
  begin
    if rising_edge(clk_a) then
      a <= d;
    end if;
    if RISING_EDGE(clk_b) then
      b <= d;
    end if;
    if rising_edge(CLK_A) then
      c <= d;
    end if;
  end process;
end rtl;
`)

	p := mustFindProcess(t, f, "p")
	if len(p.ClockSignals) != 2 || p.ClockSignals[0].Name != "clk_a" || p.ClockSignals[1].Name != "clk_b" {
		t.Fatalf("expected clocks clk_a, clk_b, got %+v", p.ClockSignals)
	}
}

func TestExtractCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().ExtractSource(ctx, "x.vhd", []byte(registerVHDL)); err == nil {
		t.Fatalf("expected error for cancelled context")
	}
}

func TestExtractMissingFile(t *testing.T) {
	_, err := New().Extract(context.Background(), filepath.Join(t.TempDir(), "nope.vhd"))
	if err == nil || !strings.Contains(err.Error(), "reading file") {
		t.Fatalf("expected read error, got %v", err)
	}
}

func parseVHDL(t *testing.T, src string) model.File {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "test.vhd")
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatalf("write vhdl: %v", err)
	}

	f, err := New().Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if f.Path != path {
		t.Fatalf("path = %q, want %q", f.Path, path)
	}
	return f
}

func mustFindProcess(t *testing.T, f model.File, label string) model.Process {
	t.Helper()
	for _, e := range f.Entities {
		for _, a := range e.Architectures {
			for _, p := range a.Processes {
				if strings.EqualFold(p.Label, label) {
					return p
				}
			}
		}
	}
	t.Fatalf("process %s not found", label)
	return model.Process{}
}

func sensitivityNames(p model.Process) string {
	names := make([]string, 0, len(p.SensitivityList))
	for _, s := range p.SensitivityList {
		names = append(names, s.Name)
	}
	return strings.Join(names, ",")
}
