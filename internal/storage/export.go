package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/episim/internal/epi"
)

type ExportData struct {
	Run          RunMetadata          `json:"run"`
	Compartments []string             `json:"compartments"`
	Times        []float64            `json:"times"`
	Series       map[string][]float64 `json:"series"`
}

// ExportJSON writes the metadata together with one series per compartment.
func ExportJSON(w io.Writer, meta RunMetadata, tr *epi.Trajectory) error {
	data := ExportData{
		Run:          meta,
		Compartments: tr.CompartmentNames(),
		Times:        tr.TimeGrid(),
		Series:       make(map[string][]float64, len(tr.CompartmentNames())),
	}
	for _, name := range data.Compartments {
		series, err := tr.SeriesFor(name)
		if err != nil {
			return err
		}
		data.Series[name] = series
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
