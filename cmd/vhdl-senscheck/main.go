// =============================================================================
// vhdl-senscheck - Main Entry Point
// =============================================================================
//
// Checks that the sensitivity list of every clocked VHDL process names
// exactly its clocks and their resets.
//
// THE PIPELINE:
//   1. Config selects the project files (vhdl_senscheck.json)
//   2. Extractor turns each file into a structural model (entities,
//      architectures, processes, clocks, resets, sensitivity lists)
//   3. Indexer caches per-file models and validates the whole project
//      against the CUE model contract
//   4. The sensitivity rule checks every synchronous process
//   5. Waiver policies (Rego) drop accepted findings
//   6. The report sink writes text, JSON, YAML or XML
//
// WHEN INVESTIGATING FALSE POSITIVES:
//   Dump the model first (vhdl-senscheck dump). A wrong clock or reset is
//   an extractor issue; a right model with a wrong finding is a rule issue.
// =============================================================================

package main

import (
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
