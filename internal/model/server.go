package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ErrNotLoaded is returned when a prediction is requested but no model
// session exists.
var ErrNotLoaded = errors.New("model not loaded")

// Server owns the ONNX session and the shared input/output tensors.
// The runtime reuses one tensor pair, so Predict serializes callers.
type Server struct {
	mu           sync.Mutex
	session      *ort.AdvancedSession
	metadata     Metadata
	modelPath    string
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
}

func NewServer(modelPath, metadataPath string) (*Server, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model file %s: %w", modelPath, err)
	}

	metaFile, err := os.ReadFile(metadataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var metadata Metadata
	if err := json.Unmarshal(metaFile, &metadata); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	if err := metadata.validate(); err != nil {
		return nil, fmt.Errorf("invalid metadata: %w", err)
	}

	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}

	inputShape := ort.NewShape(metadata.InputShape...)
	outputShape := ort.NewShape(metadata.OutputShape...)

	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{"input"}, []string{"output"},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &Server{
		session:      session,
		metadata:     metadata,
		modelPath:    modelPath,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
	}, nil
}

func (m *Metadata) validate() error {
	if len(m.Classes) == 0 {
		return errors.New("no classes defined")
	}
	if m.ImageSize <= 0 {
		return errors.New("image_size must be positive")
	}
	if len(m.InputShape) == 0 || len(m.OutputShape) == 0 {
		return errors.New("input_shape and output_shape are required")
	}
	return nil
}

// ExpectedInputLen is the flattened element count of the input tensor.
func (m Metadata) ExpectedInputLen() int {
	n := 1
	for _, dim := range m.InputShape {
		n *= int(dim)
	}
	return n
}

func (s *Server) Metadata() Metadata {
	return s.metadata
}

func (s *Server) Info() Info {
	return Info{
		ModelLoaded: true,
		InputShape:  s.metadata.InputShape,
		OutputShape: s.metadata.OutputShape,
		TotalParams: s.metadata.TotalParams,
		Layers:      s.metadata.Layers,
		ModelPath:   s.modelPath,
	}
}

func (s *Server) Predict(inputData []float32) (*Prediction, error) {
	if s == nil || s.session == nil {
		return nil, ErrNotLoaded
	}

	if expected := s.metadata.ExpectedInputLen(); len(inputData) != expected {
		return nil, fmt.Errorf("expected %d input values, got %d", expected, len(inputData))
	}

	s.mu.Lock()
	copy(s.inputTensor.GetData(), inputData)

	if err := s.session.Run(); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	outputData := make([]float32, len(s.outputTensor.GetData()))
	copy(outputData, s.outputTensor.GetData())
	s.mu.Unlock()

	return interpret(outputData, s.metadata.Classes)
}

// interpret maps raw network output to a classification. A single-value
// output is treated as the sigmoid probability of the last class, the
// way binary pneumonia classifiers are exported; anything wider is an
// argmax over per-class scores.
func interpret(outputData []float32, classes []string) (*Prediction, error) {
	if len(outputData) == 0 {
		return nil, errors.New("empty model output")
	}

	scores := make(map[string]float32, len(classes))

	if len(outputData) == 1 && len(classes) == 2 {
		p := outputData[0]
		scores[classes[0]] = 1 - p
		scores[classes[1]] = p

		class, confidence := classes[0], 1-p
		if p >= 0.5 {
			class, confidence = classes[1], p
		}
		return &Prediction{
			Class:      class,
			Confidence: confidence,
			Severity:   severityFor(class, confidence),
			Scores:     scores,
		}, nil
	}

	maxIdx := 0
	maxVal := outputData[0]
	for i, val := range outputData {
		if i < len(classes) {
			scores[classes[i]] = val
			if val > maxVal {
				maxVal = val
				maxIdx = i
			}
		}
	}

	class := classes[maxIdx]
	return &Prediction{
		Class:      class,
		Confidence: maxVal,
		Severity:   severityFor(class, maxVal),
		Scores:     scores,
	}, nil
}

func (s *Server) Close() {
	if s.inputTensor != nil {
		s.inputTensor.Destroy()
	}
	if s.outputTensor != nil {
		s.outputTensor.Destroy()
	}
	if s.session != nil {
		s.session.Destroy()
	}
	ort.DestroyEnvironment()
}
