// SPDX-License-Identifier: MIT

package output

import "github.com/katalvlaran/gridstate/dataset"

// Node is the result row of one node.
type Node struct {
	ID        dataset.ID
	Energized bool
	UPu       float64 // |U| per unit
	U         float64 // |U| in V
	UAngle    float64 // rad
	P         float64 // W
	Q         float64 // var
}

// Line is the result row of one line. Currents are magnitudes in A.
type Line struct {
	ID        dataset.ID
	Energized bool
	PFrom     float64
	QFrom     float64
	IFrom     float64
	SFrom     float64
	PTo       float64
	QTo       float64
	ITo       float64
	STo       float64
	Loading   float64 // max(IFrom, ITo) / IN
}

// Appliance is the result row of a source, load, generator or shunt.
type Appliance struct {
	ID        dataset.ID
	Energized bool
	P         float64
	Q         float64
	I         float64
	S         float64
	PF        float64 // P/S, 0 when S is 0
}

// VoltageSensor holds the residuals of one voltage sensor. UAngleResidual is
// NaN for magnitude-only sensors.
type VoltageSensor struct {
	ID             dataset.ID
	UResidual      float64 // V
	UAngleResidual float64 // rad
}

// PowerSensor holds the residuals of one power sensor, in its own reference
// direction.
type PowerSensor struct {
	ID        dataset.ID
	PResidual float64
	QResidual float64
}

// Info describes how the result was obtained.
type Info struct {
	Calculation string
	Method      string
	Iterations  int
	MaxMismatch float64   // power mismatch (power flow) or state update (estimation)
	Trace       []float64 // per iteration
}

// Output is the component-keyed result of one scenario. Every table is
// indexed like the matching input table.
type Output struct {
	Nodes          []Node
	Lines          []Line
	Sources        []Appliance
	SymLoads       []Appliance
	SymGens        []Appliance
	Shunts         []Appliance
	VoltageSensors []VoltageSensor
	PowerSensors   []PowerSensor
	Info           Info
}
