package extractor

import (
	"regexp"
	"strings"
)

// vectorType matches a one-dimensional vector subtype with literal bounds.
const vectorType = `(?:\w+\.)*(?:std_logic_vector|std_ulogic_vector|bit_vector|unsigned|signed|u_unsigned|u_signed)\s*\(\s*(\d+)\s+(downto|to)\s+(\d+)\s*\)`

var (
	// Pattern: entity <name> is
	entityPattern = regexp.MustCompile(`(?im)^\s*entity\s+(\w+)\s+is\b`)

	// Pattern: architecture <name> of <entity> is
	archPattern = regexp.MustCompile(`(?im)^\s*architecture\s+(\w+)\s+of\s+(\w+)\s+is\b`)

	// Pattern: [label :] [postponed] process
	processPattern = regexp.MustCompile(`(?i)(?:\b(\w+)\s*:\s*)?(?:\bpostponed\s+)?\bprocess\b`)

	// Pattern: end [postponed] process
	endProcessPattern = regexp.MustCompile(`(?i)\bend\s+(?:postponed\s+)?process\b`)

	// Pattern: port (
	portOpenPattern = regexp.MustCompile(`(?i)\bport\s*\(`)

	// Pattern: <names> : [mode] <vector type>(<left> downto|to <right>)
	portDeclPattern = regexp.MustCompile(`(?is)^\s*(\w+(?:\s*,\s*\w+)*)\s*:\s*(?:(?:in|out|inout|buffer)\s+)?` + vectorType)

	// Pattern: signal <names> : <vector type>(<left> downto|to <right>)
	signalDeclPattern = regexp.MustCompile(`(?is)\bsignal\s+(\w+(?:\s*,\s*\w+)*)\s*:\s*` + vectorType)

	// Pattern: <name> | <name>(<i>) | <name>(<l> downto|to <r>)
	refPattern = regexp.MustCompile(`(?i)^(\w+)\s*(?:\(\s*(\d+)\s*(?:\s(downto|to)\s+(\d+)\s*)?\))?$`)

	// Keywords that delimit if-chains inside a process body.
	ifTokenPattern = regexp.MustCompile(`(?i)\b(end\s+if|elsif|if|else|then)\b`)

	// Pattern: rising_edge(<ref>) | falling_edge(<ref>)
	edgeCallPattern = regexp.MustCompile(`(?i)\b(?:rising_edge|falling_edge)\s*\(\s*(\w+(?:\s*\([^()]*\))?)\s*\)`)

	// Pattern: <ref>'event | <ref>'stable
	edgeAttrPattern = regexp.MustCompile(`(?i)\b(\w+(?:\s*\([^()]*\))?)\s*'\s*(?:event|stable)\b`)

	// Pattern: any signal-like reference in a condition
	condRefPattern = regexp.MustCompile(`(?i)\b([a-z]\w*(?:\s*\(\s*\d+\s*(?:\s(?:downto|to)\s+\d+\s*)?\))?)`)
)

// condKeywords are operator and literal words that are never signals.
var condKeywords = map[string]bool{
	"and": true, "or": true, "not": true, "xor": true, "nand": true, "nor": true, "xnor": true,
	"true": true, "false": true, "rising_edge": true, "falling_edge": true,
	"event": true, "stable": true, "others": true,
}

// matchEntities returns every entity declared in text.
func matchEntities(text string) [][]int {
	return entityPattern.FindAllStringSubmatchIndex(text, -1)
}

// matchArchitectures returns every architecture declared in text.
func matchArchitectures(text string) [][]int {
	return archPattern.FindAllStringSubmatchIndex(text, -1)
}

// isEndKeyword reports whether the word before offset is "end", as in
// "end process".
func isEndKeyword(text string, offset int) bool {
	prefix := strings.TrimRight(text[:offset], " \t\r\n")
	if len(prefix) < 3 {
		return false
	}
	word := prefix[len(prefix)-3:]
	if !strings.EqualFold(word, "end") {
		return false
	}
	return len(prefix) == 3 || !isWordByte(prefix[len(prefix)-4])
}

func isWordByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
