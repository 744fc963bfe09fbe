// SPDX-License-Identifier: MIT

package dataset

import (
	"math"

	"github.com/katalvlaran/gridstate/calcerr"
)

// Update records are sparse overrides keyed by ID. A nil field keeps the base
// value. Updates never add or remove components.

type SourceUpdate struct {
	ID        ID       `yaml:"id"`
	Status    *Status  `yaml:"status"`
	URef      *float64 `yaml:"u_ref"`
	URefAngle *float64 `yaml:"u_ref_angle"`
}

type SymLoadUpdate struct {
	ID         ID       `yaml:"id"`
	Status     *Status  `yaml:"status"`
	PSpecified *float64 `yaml:"p_specified"`
	QSpecified *float64 `yaml:"q_specified"`
}

type SymGenUpdate struct {
	ID         ID       `yaml:"id"`
	Status     *Status  `yaml:"status"`
	PSpecified *float64 `yaml:"p_specified"`
	QSpecified *float64 `yaml:"q_specified"`
}

type ShuntUpdate struct {
	ID     ID       `yaml:"id"`
	Status *Status  `yaml:"status"`
	G1     *float64 `yaml:"g1"`
	B1     *float64 `yaml:"b1"`
}

// VoltageSensorUpdate overrides a voltage sensor. A NaN UAngleMeasured turns
// the sensor into a magnitude-only sensor.
type VoltageSensorUpdate struct {
	ID             ID       `yaml:"id"`
	USigma         *float64 `yaml:"u_sigma"`
	UMeasured      *float64 `yaml:"u_measured"`
	UAngleMeasured *float64 `yaml:"u_angle_measured"`
}

type PowerSensorUpdate struct {
	ID         ID       `yaml:"id"`
	PowerSigma *float64 `yaml:"power_sigma"`
	PMeasured  *float64 `yaml:"p_measured"`
	QMeasured  *float64 `yaml:"q_measured"`
	PSigma     *float64 `yaml:"p_sigma"`
	QSigma     *float64 `yaml:"q_sigma"`
}

// UpdateDataset is one batch scenario.
type UpdateDataset struct {
	Sources        []SourceUpdate        `yaml:"source"`
	SymLoads       []SymLoadUpdate       `yaml:"sym_load"`
	SymGens        []SymGenUpdate        `yaml:"sym_gen"`
	Shunts         []ShuntUpdate         `yaml:"shunt"`
	VoltageSensors []VoltageSensorUpdate `yaml:"sym_voltage_sensor"`
	PowerSensors   []PowerSensorUpdate   `yaml:"sym_power_sensor"`
}

// Empty reports whether the scenario changes nothing.
func (u *UpdateDataset) Empty() bool {
	return u == nil || len(u.Sources)+len(u.SymLoads)+len(u.SymGens)+len(u.Shunts)+
		len(u.VoltageSensors)+len(u.PowerSensors) == 0
}

// Apply returns base with u applied. The base is never mutated: untouched
// tables are shared with base, touched tables are copied first.
// Every id in u must exist in the matching base table, otherwise a
// *calcerr.ValidationError lists all unknown ids and nil is returned.
//
// Complexity: O(rows of touched tables + len(u)).
func Apply(base *Dataset, u *UpdateDataset) (*Dataset, error) {
	out := *base // shallow: tables shared until touched
	if u.Empty() {
		return &out, nil
	}

	var issues calcerr.Collector
	out.Sources = applyTable(base.Sources, u.Sources, ComponentSource, &issues,
		func(r Source) ID { return r.ID }, func(up SourceUpdate) ID { return up.ID },
		func(r *Source, up SourceUpdate) {
			setIf(&r.Status, up.Status)
			setIf(&r.URef, up.URef)
			setIf(&r.URefAngle, up.URefAngle)
		})
	out.SymLoads = applyTable(base.SymLoads, u.SymLoads, ComponentSymLoad, &issues,
		func(r SymLoad) ID { return r.ID }, func(up SymLoadUpdate) ID { return up.ID },
		func(r *SymLoad, up SymLoadUpdate) {
			setIf(&r.Status, up.Status)
			setIf(&r.PSpecified, up.PSpecified)
			setIf(&r.QSpecified, up.QSpecified)
		})
	out.SymGens = applyTable(base.SymGens, u.SymGens, ComponentSymGen, &issues,
		func(r SymGen) ID { return r.ID }, func(up SymGenUpdate) ID { return up.ID },
		func(r *SymGen, up SymGenUpdate) {
			setIf(&r.Status, up.Status)
			setIf(&r.PSpecified, up.PSpecified)
			setIf(&r.QSpecified, up.QSpecified)
		})
	out.Shunts = applyTable(base.Shunts, u.Shunts, ComponentShunt, &issues,
		func(r Shunt) ID { return r.ID }, func(up ShuntUpdate) ID { return up.ID },
		func(r *Shunt, up ShuntUpdate) {
			setIf(&r.Status, up.Status)
			setIf(&r.G1, up.G1)
			setIf(&r.B1, up.B1)
		})
	out.VoltageSensors = applyTable(base.VoltageSensors, u.VoltageSensors, ComponentVoltageSensor, &issues,
		func(r SymVoltageSensor) ID { return r.ID }, func(up VoltageSensorUpdate) ID { return up.ID },
		func(r *SymVoltageSensor, up VoltageSensorUpdate) {
			setIf(&r.USigma, up.USigma)
			setIf(&r.UMeasured, up.UMeasured)
			if up.UAngleMeasured != nil {
				r.AngleMeasured = !math.IsNaN(*up.UAngleMeasured)
				r.UAngleMeasured = 0
				if r.AngleMeasured {
					r.UAngleMeasured = *up.UAngleMeasured
				}
			}
		})
	out.PowerSensors = applyTable(base.PowerSensors, u.PowerSensors, ComponentPowerSensor, &issues,
		func(r SymPowerSensor) ID { return r.ID }, func(up PowerSensorUpdate) ID { return up.ID },
		func(r *SymPowerSensor, up PowerSensorUpdate) {
			setIf(&r.PowerSigma, up.PowerSigma)
			setIf(&r.PMeasured, up.PMeasured)
			setIf(&r.QMeasured, up.QMeasured)
			setIf(&r.PSigma, up.PSigma)
			setIf(&r.QSigma, up.QSigma)
		})

	if err := issues.Validation(); err != nil {
		return nil, err
	}

	return &out, nil
}

// applyTable copies rows once, then applies every update in order; a later
// update of the same id wins.
func applyTable[R, U any](
	rows []R, updates []U, table Component, issues *calcerr.Collector,
	rowID func(R) ID, updID func(U) ID, patch func(*R, U),
) []R {
	if len(updates) == 0 {
		return rows
	}
	index := make(map[ID]int, len(rows))
	for i, r := range rows {
		index[rowID(r)] = i
	}
	out := cloneSlice(rows)
	for _, up := range updates {
		id := updID(up)
		i, ok := index[id]
		if !ok {
			issues.Addf(string(table), int64(id), "id", "update references unknown %s", table)
			continue
		}
		patch(&out[i], up)
	}

	return out
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
