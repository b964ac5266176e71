// Package cell models a lithium-ion cell as an equivalent circuit: an
// open-circuit-voltage source behind a series resistance R0 and a single
// RC polarization branch (R1, C1). The model is stateless; callers own the
// state variables (SOC and RC branch voltage) and pass them through Step.
//
// Sign convention: positive current discharges the cell.
package cell
