package recognizer

import "encoding/json"

// Prediction is one label with its confidence as a percentage.
type Prediction struct {
	Label      string  `json:"crop_name"`
	Confidence float64 `json:"confidence"`
}

// Result is the wire shape for a prediction. On success every field except
// Error is emitted, a zero confidence included; on failure only Success and
// Error appear.
type Result struct {
	Success     bool         `json:"success"`
	PrimaryCrop string       `json:"primary_crop"`
	Confidence  float64      `json:"confidence"`
	Predictions []Prediction `json:"all_predictions"`
	Model       string       `json:"model"`
	Error       string       `json:"error"`
}

func (r Result) MarshalJSON() ([]byte, error) {
	if !r.Success {
		return json.Marshal(struct {
			Success bool   `json:"success"`
			Error   string `json:"error"`
		}{r.Success, r.Error})
	}
	return json.Marshal(struct {
		Success     bool         `json:"success"`
		PrimaryCrop string       `json:"primary_crop"`
		Confidence  float64      `json:"confidence"`
		Predictions []Prediction `json:"all_predictions"`
		Model       string       `json:"model"`
	}{r.Success, r.PrimaryCrop, r.Confidence, r.Predictions, r.Model})
}
