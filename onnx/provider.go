package onnx

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

const (
	modelFileName  = "model.onnx"
	labelsFileName = "labels.txt"

	defaultInputSize = 224
)

// Model is a loaded classifier ready for inference.
type Model interface {
	// Run feeds a CHW float32 image into the network and returns the raw
	// per-class logits. Safe for concurrent use.
	Run(input []float32) ([]float32, error)
	Labels() []string
	InputSize() int
	Close() error
}

// Provider loads named models. The production implementation opens ONNX
// Runtime sessions; tests substitute a stub.
type Provider interface {
	Load(name string) (Model, error)
	Device() string
}

// RuntimeProvider loads models from modelDir/<name>/model.onnx with class
// names in labels.txt alongside. A missing model file is fetched from the
// configured URL first.
type RuntimeProvider struct {
	modelDir  string
	urls      map[string]string
	requested string
	device    string
}

func NewRuntimeProvider(modelDir string, urls map[string]string, device string) *RuntimeProvider {
	if device == "" {
		device = "cpu"
	}
	return &RuntimeProvider{modelDir: modelDir, urls: urls, device: "cpu", requested: device}
}

func (p *RuntimeProvider) Device() string {
	return p.device
}

func (p *RuntimeProvider) Load(name string) (Model, error) {
	dir := filepath.Join(p.modelDir, name)
	modelPath := filepath.Join(dir, modelFileName)
	if _, err := os.Stat(modelPath); err != nil {
		url := p.urls[name]
		if url == "" {
			return nil, fmt.Errorf("model file %s not found and no download URL configured", modelPath)
		}
		if err := fetchModel(url, modelPath); err != nil {
			return nil, fmt.Errorf("failed to fetch model %s: %w", name, err)
		}
	}

	labels, err := readLabels(filepath.Join(dir, labelsFileName))
	if err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get model input/output info: %w", err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, fmt.Errorf("model %s has no inputs or outputs", name)
	}
	size := inputSizeOf(inputs[0])

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer opts.Destroy()
	p.configureDevice(opts)

	inputTensor, err := ort.NewTensor(ort.NewShape(1, 3, int64(size), int64(size)), make([]float32, 3*size*size))
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(len(labels))))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{inputs[0].Name},
		[]string{outputs[0].Name},
		[]ort.Value{inputTensor},
		[]ort.Value{outputTensor},
		opts,
	)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create ONNX Runtime session: %w", err)
	}

	return &sessionModel{
		session: session,
		input:   inputTensor,
		output:  outputTensor,
		labels:  labels,
		size:    size,
	}, nil
}

// configureDevice appends the CUDA execution provider when requested,
// falling back to CPU if the runtime build has no CUDA support.
func (p *RuntimeProvider) configureDevice(opts *ort.SessionOptions) {
	if p.requested != "cuda" {
		return
	}
	cudaOpts, err := ort.NewCUDAProviderOptions()
	if err != nil {
		slog.Warn("CUDA unavailable, using CPU", slog.String("error", err.Error()))
		return
	}
	defer cudaOpts.Destroy()
	if err := opts.AppendExecutionProviderCUDA(cudaOpts); err != nil {
		slog.Warn("CUDA unavailable, using CPU", slog.String("error", err.Error()))
		return
	}
	p.device = "cuda"
}

func inputSizeOf(info ort.InputOutputInfo) int {
	dims := info.Dimensions
	if len(dims) == 4 && dims[2] > 0 {
		return int(dims[2])
	}
	return defaultInputSize
}

func readLabels(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var labels []string
	for _, l := range strings.Split(string(b), "\n") {
		l = strings.TrimSpace(l)
		if l != "" {
			labels = append(labels, l)
		}
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("labels file %s is empty", path)
	}
	return labels, nil
}

type sessionModel struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	labels  []string
	size    int
	mu      sync.Mutex
}

// Run serializes access to the session's shared input/output tensors.
func (m *sessionModel) Run(input []float32) ([]float32, error) {
	if len(input) != len(m.input.GetData()) {
		return nil, fmt.Errorf("input has %d values, model expects %d", len(input), len(m.input.GetData()))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy(m.input.GetData(), input)
	if err := m.session.Run(); err != nil {
		return nil, err
	}
	out := m.output.GetData()
	logits := make([]float32, len(out))
	copy(logits, out)
	return logits, nil
}

func (m *sessionModel) Labels() []string {
	return m.labels
}

func (m *sessionModel) InputSize() int {
	return m.size
}

func (m *sessionModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_ = m.input.Destroy()
	_ = m.output.Destroy()
	_ = m.session.Destroy()
	return nil
}
