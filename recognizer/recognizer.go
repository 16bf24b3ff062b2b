package recognizer

import (
	"bytes"
	"fmt"
	"image"
	"log/slog"
	"math"
	"sort"

	"github.com/jihadXYZ/croprec/onnx"
)

const DefaultTopK = 5

// Recognizer owns a loaded classification model. Loaded once, read-only
// afterwards.
type Recognizer struct {
	model     onnx.Model
	modelName string
	device    string
}

// New loads the primary model, falling back to the general-purpose model on
// any failure. The name that actually loaded is recorded for reporting.
func New(provider onnx.Provider, primary, fallback string) (*Recognizer, error) {
	name := primary
	model, err := provider.Load(primary)
	if err != nil {
		slog.Error("Failed to load primary model, trying fallback",
			slog.String("model", primary),
			slog.String("fallback", fallback),
			slog.String("error", err.Error()))
		name = fallback
		model, err = provider.Load(fallback)
		if err != nil {
			return nil, fmt.Errorf("failed to load fallback model %s: %w", fallback, err)
		}
	}
	return &Recognizer{model: model, modelName: name, device: provider.Device()}, nil
}

func (r *Recognizer) ModelName() string {
	return r.modelName
}

func (r *Recognizer) Device() string {
	return r.device
}

func (r *Recognizer) Close() error {
	return r.model.Close()
}

// Predict classifies imageBytes and returns the topK labels by descending
// probability. It never returns an error: every failure, panics included,
// becomes a Result with Success false.
func (r *Recognizer) Predict(imageBytes []byte, topK int) (result *Result) {
	defer func() {
		if p := recover(); p != nil {
			result = failure(fmt.Errorf("prediction panicked: %v", p))
		}
	}()

	if topK <= 0 {
		topK = DefaultTopK
	}

	img, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return failure(fmt.Errorf("failed to decode image: %w", err))
	}

	input := Preprocess(img, r.model.InputSize())
	logits, err := r.model.Run(input)
	if err != nil {
		return failure(fmt.Errorf("inference failed: %w", err))
	}
	if len(logits) == 0 {
		return failure(fmt.Errorf("model returned no scores"))
	}

	probs := Softmax(logits)
	labels := r.model.Labels()

	top := topIndices(probs, min(topK, len(probs)))
	predictions := make([]Prediction, 0, len(top))
	for _, idx := range top {
		label := fmt.Sprintf("class_%d", idx)
		if idx < len(labels) {
			label = labels[idx]
		}
		predictions = append(predictions, Prediction{
			Label:      label,
			Confidence: roundConfidence(probs[idx]),
		})
	}

	return &Result{
		Success:     true,
		PrimaryCrop: predictions[0].Label,
		Confidence:  predictions[0].Confidence,
		Predictions: predictions,
		Model:       r.modelName,
	}
}

func failure(err error) *Result {
	slog.Error("Prediction failed", slog.String("error", err.Error()))
	return &Result{Success: false, Error: err.Error()}
}

// Softmax converts raw logits into a probability distribution. The max is
// subtracted first so large logits cannot overflow.
func Softmax(logits []float32) []float64 {
	if len(logits) == 0 {
		return nil
	}
	maxLogit := float64(logits[0])
	for _, v := range logits[1:] {
		if float64(v) > maxLogit {
			maxLogit = float64(v)
		}
	}
	probs := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		e := math.Exp(float64(v) - maxLogit)
		probs[i] = e
		sum += e
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

// topIndices returns the indices of the k highest probabilities, descending.
// Stable sort keeps the model's native class order on ties.
func topIndices(probs []float64, k int) []int {
	idx := make([]int, len(probs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return probs[idx[a]] > probs[idx[b]]
	})
	return idx[:k]
}

// roundConfidence turns a probability into a percentage with 2 decimals.
func roundConfidence(p float64) float64 {
	return math.Round(p*10000) / 100
}
