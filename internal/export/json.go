package export

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/gatesim/internal/circuit"
	"github.com/san-kum/gatesim/internal/sim"
)

type ExportData struct {
	Circuit string             `json:"circuit"`
	Dt      float64            `json:"dt"`
	Steps   int                `json:"steps"`
	Probes  []string           `json:"probes"`
	Times   []float64          `json:"times"`
	Trace   [][]circuit.Level  `json:"trace"`
	Metrics map[string]float64 `json:"metrics"`
	Errors  []string           `json:"errors,omitempty"`
}

func NewExportData(circuitName string, dt float64, result *sim.Result) ExportData {
	data := ExportData{
		Circuit: circuitName,
		Dt:      dt,
		Steps:   result.StepsTaken,
		Probes:  result.Probes,
		Times:   result.Times,
		Trace:   result.Trace,
		Metrics: result.Metrics,
	}
	for _, e := range result.Errors {
		data.Errors = append(data.Errors, e.Error())
	}
	return data
}

func WriteJSON(w io.Writer, circuitName string, dt float64, result *sim.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewExportData(circuitName, dt, result))
}

func ExportJSON(path string, circuitName string, dt float64, result *sim.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, circuitName, dt, result)
}
