package gpu

import (
	"errors"
	"strconv"
)

// ConfigInvalidError reports a configuration parse or constraint violation.
// Fatal at startup; never returned after the simulator starts running.
type ConfigInvalidError struct {
	Key    string
	Reason string
}

func (e *ConfigInvalidError) Error() string {
	return "invalid configuration for " + e.Key + ": " + e.Reason
}

// OccupancyInfeasibleError reports that no work-group fits on a compute
// unit given the current register/local-memory/wavefront limits.
type OccupancyInfeasibleError struct {
	LimitingResource string
}

func (e *OccupancyInfeasibleError) Error() string {
	return "occupancy infeasible: limiting resource is " + e.LimitingResource
}

// DecodeError reports a malformed CF/ALU/TEX instruction encountered at a
// given program counter.
type DecodeError struct {
	PC     int
	Reason string
}

func (e *DecodeError) Error() string {
	return "decode error at pc=" + strconv.Itoa(e.PC) + ": " + e.Reason
}

// ErrLoopUnderflow's message is the Reason of the *DecodeError the CF
// engine panics with when a DEC_LOOP_IDX instruction is decoded with zero
// loop depth (spec.md §4.3: "loop depth is non-negative before
// decrement; violation is a fatal decoding error").
var ErrLoopUnderflow = errors.New("loop underflow: DEC_LOOP_IDX at zero depth")
