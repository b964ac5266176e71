// Package bms implements battery management protection checks and the
// balancing strategies layered on top of the pack models.
package bms

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Status classifies the outcome of a protection check.
type Status string

const (
	StatusOK                   Status = "ok"
	StatusUnderVoltage         Status = "under_voltage"
	StatusOverVoltage          Status = "over_voltage"
	StatusOverCurrentDischarge Status = "over_current_discharge"
	StatusOverCurrentCharge    Status = "over_current_charge"
	StatusOverTemperature      Status = "over_temperature"
	StatusUnderTemperature     Status = "under_temperature"
	StatusShortCircuit         Status = "short_circuit"
)

// ProtectionLimits are the BMS trip thresholds. Voltages are per series
// cell; positive current discharges.
type ProtectionLimits struct {
	MinCellV      float64 `json:"v_min_v"`
	MaxCellV      float64 `json:"v_max_v"`
	MaxDischargeA float64 `json:"i_max_discharge_a"`
	MaxChargeA    float64 `json:"i_max_charge_a"`
	MinTempK      float64 `json:"t_min_k"`
	MaxTempK      float64 `json:"t_max_k"`
	ShortCircuitA float64 `json:"short_circuit_current_a"`
}

// DefaultProtectionLimits returns the reference trip thresholds.
func DefaultProtectionLimits() ProtectionLimits {
	return ProtectionLimits{
		MinCellV:      3.0,
		MaxCellV:      4.2,
		MaxDischargeA: 120.0,
		MaxChargeA:    120.0,
		MinTempK:      273.15,
		MaxTempK:      328.15,
		ShortCircuitA: 500.0,
	}
}

// Validate checks the thresholds.
func (l ProtectionLimits) Validate() error {
	if l.MinCellV >= l.MaxCellV {
		return fmt.Errorf("bms: voltage window [%v, %v] is empty", l.MinCellV, l.MaxCellV)
	}
	if l.MaxDischargeA <= 0 || l.MaxChargeA <= 0 {
		return fmt.Errorf("bms: current limits must be positive")
	}
	if l.MinTempK >= l.MaxTempK {
		return fmt.Errorf("bms: temperature window [%v, %v] is empty", l.MinTempK, l.MaxTempK)
	}
	if l.ShortCircuitA <= 0 {
		return fmt.Errorf("bms: short-circuit threshold %v A must be positive", l.ShortCircuitA)
	}
	return nil
}

// Check is the outcome of one protection evaluation. Each axis reports
// its own bound independently of which fault set the status.
type Check struct {
	Status        Status  `json:"status"`
	CurrentLimitA float64 `json:"current_limit_a"`
	VoltageOK     bool    `json:"voltage_ok"`
	CurrentOK     bool    `json:"current_ok"`
	TemperatureOK bool    `json:"temperature_ok"`
	Message       string  `json:"message"`
}

// Protection evaluates operating points against trip thresholds.
type Protection struct {
	limits ProtectionLimits
}

func NewProtection(limits ProtectionLimits) (Protection, error) {
	if err := limits.Validate(); err != nil {
		return Protection{}, err
	}
	return Protection{limits: limits}, nil
}

// Check classifies an operating point. Voltage faults rank above
// temperature faults, which rank above current faults; hard faults zero
// the current limit while over-current clamps it to the configured
// maximum.
func (p Protection) Check(packVoltageV, currentA, tempK float64, seriesCells int) Check {
	l := p.limits
	vCell := packVoltageV / math.Max(1, float64(seriesCells))

	c := Check{
		VoltageOK:     vCell >= l.MinCellV && vCell <= l.MaxCellV,
		TemperatureOK: tempK >= l.MinTempK && tempK <= l.MaxTempK,
		CurrentOK: math.Abs(currentA) <= l.ShortCircuitA &&
			currentA <= l.MaxDischargeA && currentA >= -l.MaxChargeA,
	}

	switch {
	case vCell < l.MinCellV:
		c.Status = StatusUnderVoltage
		c.Message = fmt.Sprintf("under voltage: %.3fV < %vV", vCell, l.MinCellV)
	case vCell > l.MaxCellV:
		c.Status = StatusOverVoltage
		c.Message = fmt.Sprintf("over voltage: %.3fV > %vV", vCell, l.MaxCellV)
	case tempK > l.MaxTempK:
		c.Status = StatusOverTemperature
		c.Message = fmt.Sprintf("over temperature: %.2fK > %vK", tempK, l.MaxTempK)
	case tempK < l.MinTempK:
		c.Status = StatusUnderTemperature
		c.Message = fmt.Sprintf("under temperature: %.2fK < %vK", tempK, l.MinTempK)
	case math.Abs(currentA) > l.ShortCircuitA:
		c.Status = StatusShortCircuit
		c.Message = "short circuit detected"
	case currentA > l.MaxDischargeA:
		c.Status = StatusOverCurrentDischarge
		c.CurrentLimitA = l.MaxDischargeA
		c.Message = fmt.Sprintf("over current discharge: %.2fA > %vA", currentA, l.MaxDischargeA)
	case currentA < -l.MaxChargeA:
		c.Status = StatusOverCurrentCharge
		c.CurrentLimitA = -l.MaxChargeA
		c.Message = fmt.Sprintf("over current charge: %.2fA > %vA", math.Abs(currentA), l.MaxChargeA)
	default:
		c.Status = StatusOK
		c.CurrentLimitA = currentA
		c.Message = "ok"
	}
	return c
}

// LimitCurrent applies a protection result to a requested current.
func (p Protection) LimitCurrent(requestedA float64, c Check) float64 {
	if c.Status == StatusOK {
		return requestedA
	}
	return c.CurrentLimitA
}

// BalancingParams configure the passive shunt balancer.
type BalancingParams struct {
	ThresholdSOC  float64 `json:"balance_threshold"`
	BleedCurrentA float64 `json:"balance_current_a"`
	Enable        bool    `json:"enable"`
}

// DefaultBalancingParams returns the reference shunt balancer settings.
func DefaultBalancingParams() BalancingParams {
	return BalancingParams{
		ThresholdSOC:  0.05,
		BleedCurrentA: 0.1,
		Enable:        true,
	}
}

func (p BalancingParams) Validate() error {
	if p.ThresholdSOC < 0 {
		return fmt.Errorf("bms: balance threshold %v must not be negative", p.ThresholdSOC)
	}
	if p.BleedCurrentA < 0 {
		return fmt.Errorf("bms: bleed current %v A must not be negative", p.BleedCurrentA)
	}
	return nil
}

// PassiveBalancer bleeds high cells through shunt resistors.
type PassiveBalancer struct {
	params BalancingParams
}

func NewPassiveBalancer(params BalancingParams) (PassiveBalancer, error) {
	if err := params.Validate(); err != nil {
		return PassiveBalancer{}, err
	}
	return PassiveBalancer{params: params}, nil
}

// Balance bleeds every cell sitting above mean + threshold/2 toward the
// mean once the SOC spread exceeds the threshold, and reports the energy
// burned in the shunts in Wh. voltsV must be as long as socs. The input
// slices are not modified.
func (b PassiveBalancer) Balance(socs, voltsV []float64, capacityAh, dtS float64) ([]float64, float64) {
	out := append([]float64(nil), socs...)
	if !b.params.Enable || len(socs) == 0 {
		return out, 0
	}

	mean := stat.Mean(socs, nil)
	if stat.PopStdDev(socs, nil) < b.params.ThresholdSOC {
		return out, 0
	}

	dsoc := b.params.BleedCurrentA * dtS / math.Max(1e-9, capacityAh*3600.0)
	cut := mean + b.params.ThresholdSOC/2

	var energyWh float64
	for i, soc := range socs {
		if soc <= cut {
			continue
		}
		out[i] = math.Max(mean, soc-dsoc)
		energyWh += b.params.BleedCurrentA * voltsV[i] * dtS / 3600.0
	}
	return out, energyWh
}

// Active balancer transfer model.
const (
	activeBalancePowerW   = 5.0
	activeSpreadThreshold = 0.02
	receiverHeadroom      = 0.05
)

// DefaultActiveEfficiency is the charge transfer efficiency of a typical
// inductive balancer.
const DefaultActiveEfficiency = 0.85

// ActiveBalancer shuttles charge from the highest cell to the lowest.
type ActiveBalancer struct {
	efficiency float64
}

func NewActiveBalancer(efficiency float64) (ActiveBalancer, error) {
	if efficiency <= 0 || efficiency > 1 {
		return ActiveBalancer{}, fmt.Errorf("bms: transfer efficiency %v outside (0, 1]", efficiency)
	}
	return ActiveBalancer{efficiency: efficiency}, nil
}

// Balance moves charge from the highest-SOC cell to the lowest once
// their spread exceeds 2%, and reports the energy consumed by the
// balancing electronics in Wh. voltsV and capsAh must be as long as
// socs. The input slices are not modified.
func (b ActiveBalancer) Balance(socs, voltsV, capsAh []float64, dtS float64) ([]float64, float64) {
	out := append([]float64(nil), socs...)
	if len(socs) < 2 {
		return out, 0
	}

	high := floats.MaxIdx(socs)
	low := floats.MinIdx(socs)
	if socs[high]-socs[low] < activeSpreadThreshold {
		return out, 0
	}

	mean := stat.Mean(socs, nil)
	shuttleA := activeBalancePowerW / math.Max(1e-9, voltsV[high])
	dHigh := shuttleA * dtS / math.Max(1e-9, capsAh[high]*3600.0)
	dLow := shuttleA * dtS * b.efficiency / math.Max(1e-9, capsAh[low]*3600.0)

	out[high] = math.Max(mean, out[high]-dHigh)
	out[low] = math.Min(mean+receiverHeadroom, out[low]+dLow)
	return out, activeBalancePowerW * dtS / 3600.0
}
