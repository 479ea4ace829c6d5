package domain

import (
	"github.com/goccy/go-json"
)

// PowerReading is one sample returned by the plant API's power report.
// Voltages are optional: one API variant omits them entirely.
type PowerReading struct {
	Timestamp      string   `json:"Current_Phase_A_TIMESTAMP"`
	CurrentA       float64  `json:"Current_Phase_A_VALUE"`
	CurrentB       float64  `json:"Current_Phase_B_VALUE"`
	CurrentC       float64  `json:"Current_Phase_C_VALUE"`
	VoltageAB      *float64 `json:"Voltage_A_B_VALUE,omitempty"`
	VoltageBC      *float64 `json:"Voltage_B_C_VALUE,omitempty"`
	VoltageCA      *float64 `json:"Voltage_C_A_VALUE,omitempty"`
	RealPowerTotal float64  `json:"Real_Power_Total_VALUE"`
	PowerFactor    *float64 `json:"powerFactor,omitempty"`
}

// UnmarshalJSON accepts the alternate voltage key spellings some report
// endpoints emit (Voltage_A_B_Value, Voltage_B_C_Value, Voltage_A_C_Value).
func (r *PowerReading) UnmarshalJSON(b []byte) error {
	type plain PowerReading
	var aux struct {
		plain
		AltAB *float64 `json:"Voltage_A_B_Value"`
		AltBC *float64 `json:"Voltage_B_C_Value"`
		AltCA *float64 `json:"Voltage_A_C_Value"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*r = PowerReading(aux.plain)
	if r.VoltageAB == nil {
		r.VoltageAB = aux.AltAB
	}
	if r.VoltageBC == nil {
		r.VoltageBC = aux.AltBC
	}
	if r.VoltageCA == nil {
		r.VoltageCA = aux.AltCA
	}
	return nil
}

// ChartRow is one row handed to the chart layer. In today mode it is a
// relabelled reading; otherwise it is a bucket of averaged metrics.
type ChartRow struct {
	Timestamp       string   `json:"timestamp" db:"bucket_key" dynamodbav:"bucketKey"`
	SourceTimestamp string   `json:"Current_Phase_A_TIMESTAMP,omitempty" db:"-" dynamodbav:"-"`
	CurrentA        float64  `json:"Current_Phase_A_VALUE" db:"current_a" dynamodbav:"currentA"`
	CurrentB        float64  `json:"Current_Phase_B_VALUE" db:"current_b" dynamodbav:"currentB"`
	CurrentC        float64  `json:"Current_Phase_C_VALUE" db:"current_c" dynamodbav:"currentC"`
	VoltageAB       *float64 `json:"Voltage_A_B_VALUE,omitempty" db:"voltage_ab" dynamodbav:"voltageAB,omitempty"`
	VoltageBC       *float64 `json:"Voltage_B_C_VALUE,omitempty" db:"voltage_bc" dynamodbav:"voltageBC,omitempty"`
	VoltageCA       *float64 `json:"Voltage_C_A_VALUE,omitempty" db:"voltage_ca" dynamodbav:"voltageCA,omitempty"`
	RealPowerTotal  float64  `json:"Real_Power_Total_VALUE" db:"real_power_total" dynamodbav:"realPowerTotal"`
	PowerFactor     *float64 `json:"powerFactor,omitempty" db:"power_factor" dynamodbav:"powerFactor,omitempty"`
}

// Float returns a pointer to v; handy for building optional metrics.
func Float(v float64) *float64 { return &v }
