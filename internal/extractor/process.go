package extractor

import (
	"regexp"
	"sort"
	"strings"

	"github.com/robert-at-pretension-io/vhdl-senscheck/internal/model"
)

// processSpan locates one process statement.
type processSpan struct {
	label   string
	start   int // label, or the process keyword when unlabeled
	keyword int // just past the process keyword
	end     int // start of "end process", or the end of the enclosing region
}

// findProcesses returns the process statements in src.text[from:to].
func findProcesses(src *source, from, to int) []processSpan {
	var spans []processSpan
	pos := from
	for pos < to {
		loc := processPattern.FindStringSubmatchIndex(src.text[pos:to])
		if loc == nil {
			break
		}
		start, matchEnd := pos+loc[0], pos+loc[1]
		keywordStart := matchEnd - len("process")
		if isEndKeyword(src.text, keywordStart) {
			pos = matchEnd
			continue
		}

		span := processSpan{start: start, keyword: matchEnd, end: to}
		if loc[2] >= 0 {
			span.label = src.text[pos+loc[2] : pos+loc[3]]
		}
		next := to
		if endLoc := endProcessPattern.FindStringIndex(src.text[matchEnd:to]); endLoc != nil {
			span.end = matchEnd + endLoc[0]
			next = matchEnd + endLoc[1]
		}
		spans = append(spans, span)
		pos = next
	}
	return spans
}

// analyzeProcess builds the model of one process: its sensitivity list and
// the clocks and resets its if-chains test.
//
// A process is synchronous when it has an explicit sensitivity list and at
// least one edge condition. "process(all)" and processes driven by wait
// statements are never synchronous: their sensitivity is implicit.
func analyzeProcess(src *source, decls declarations, span processSpan) model.Process {
	proc := model.Process{Label: span.label, Line: src.lineAt(span.start)}

	bodyStart := span.keyword
	hasList, implicit := false, false
	if open := src.firstNonSpace(span.keyword, span.end); open < span.end && src.text[open] == '(' {
		if closing := src.matchParen(open); closing > 0 && closing < span.end {
			hasList = true
			bodyStart = closing + 1
			if strings.EqualFold(strings.TrimSpace(src.text[open+1:closing]), "all") {
				implicit = true
			} else {
				proc.SensitivityList = sensitivityList(src, decls, open+1, closing)
			}
		}
	}

	proc.ClockSignals = clockSignals(src, decls, bodyStart, span.end)
	proc.IsSynchronous = hasList && !implicit && len(proc.ClockSignals) > 0
	return proc
}

func sensitivityList(src *source, decls declarations, from, to int) []model.Sensitivity {
	var list []model.Sensitivity
	for _, part := range src.splitTopLevel(from, to) {
		text := strings.TrimSpace(src.text[part[0]:part[1]])
		if text == "" {
			continue
		}
		line := src.lineAt(src.firstNonSpace(part[0], part[1]))
		list = append(list, model.Sensitivity{SignalRef: decls.ref(text, line)})
	}
	return list
}

// ifChain is one if statement; conds are its if and elsif conditions so far.
type ifChain struct {
	conds [][2]int
}

// clockSignals walks the if-chains of a process body. Every edge condition
// names a clock. The conditions tested earlier in the same chain, as in
// "if rst = '1' then ... elsif rising_edge(clk) then", name the resets that
// take priority over that clock.
func clockSignals(src *source, decls declarations, from, to int) []model.ClockSignal {
	var (
		clocks      []model.ClockSignal
		byName      = map[string]int{}
		stack       []*ifChain
		pendingKind string
		pendingFrom int
	)

	for _, loc := range ifTokenPattern.FindAllStringIndex(src.text[from:to], -1) {
		tokStart, tokEnd := from+loc[0], from+loc[1]
		tok := strings.Join(strings.Fields(strings.ToLower(src.text[tokStart:tokEnd])), " ")

		switch tok {
		case "if", "elsif":
			pendingKind, pendingFrom = tok, tokEnd
		case "else":
			pendingKind = ""
		case "end if":
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			pendingKind = ""
		case "then":
			if pendingKind == "" {
				continue
			}
			if pendingKind == "if" || len(stack) == 0 {
				stack = append(stack, &ifChain{})
			}
			chain := stack[len(stack)-1]
			cond := [2]int{pendingFrom, tokStart}
			pendingKind = ""

			for _, clk := range edgeRefs(src, decls, cond) {
				key := strings.ToLower(clk.Name)
				idx, ok := byName[key]
				if !ok {
					idx = len(clocks)
					byName[key] = idx
					clocks = append(clocks, model.ClockSignal{SignalRef: clk})
				}
				addResets(&clocks[idx], resetRefs(src, decls, chain.conds, clk))
			}
			chain.conds = append(chain.conds, cond)
		}
	}
	return clocks
}

func addResets(clk *model.ClockSignal, resets []model.SignalRef) {
	for _, r := range resets {
		dup := false
		for _, have := range clk.ResetSignals {
			if have.SameName(r.Name) {
				dup = true
				break
			}
		}
		if !dup {
			clk.ResetSignals = append(clk.ResetSignals, model.ResetSignal{SignalRef: r})
		}
	}
	clk.HasSynchronousReset = len(clk.ResetSignals) > 0
}

// edgeRefs returns the signals whose edge a condition tests, in source order.
func edgeRefs(src *source, decls declarations, cond [2]int) []model.SignalRef {
	text := src.text[cond[0]:cond[1]]
	type hit struct {
		offset int
		text   string
	}
	var hits []hit
	for _, re := range []*regexp.Regexp{edgeCallPattern, edgeAttrPattern} {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			hits = append(hits, hit{offset: cond[0] + m[2], text: text[m[2]:m[3]]})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].offset < hits[j].offset })

	var refs []model.SignalRef
	seen := map[string]bool{}
	for _, h := range hits {
		ref := decls.ref(h.text, src.lineAt(h.offset))
		key := strings.ToLower(ref.Name)
		if seen[key] {
			continue
		}
		seen[key] = true
		refs = append(refs, ref)
	}
	return refs
}

// resetRefs returns the signals tested by the earlier conditions of a chain.
// Conditions that themselves test an edge are skipped.
func resetRefs(src *source, decls declarations, conds [][2]int, clk model.SignalRef) []model.SignalRef {
	var refs []model.SignalRef
	for _, cond := range conds {
		if len(edgeRefs(src, decls, cond)) > 0 {
			continue
		}
		text := src.text[cond[0]:cond[1]]
		for _, m := range condRefPattern.FindAllStringSubmatchIndex(text, -1) {
			word := text[m[2]:m[3]]
			base := word
			if i := strings.IndexAny(base, " \t\r\n("); i >= 0 {
				base = base[:i]
			}
			if condKeywords[strings.ToLower(base)] || afterTick(text, m[2]) {
				continue
			}
			ref := decls.ref(word, src.lineAt(cond[0]+m[2]))
			if ref.SameName(clk.Name) {
				continue
			}
			refs = append(refs, ref)
		}
	}
	return refs
}

// afterTick reports whether the word at offset is an attribute name, as in
// sig'high.
func afterTick(text string, offset int) bool {
	i := offset - 1
	for i >= 0 && (text[i] == ' ' || text[i] == '\t') {
		i--
	}
	return i >= 0 && text[i] == '\''
}
