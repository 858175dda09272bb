package model

// Metadata is the JSON sidecar shipped next to the model artifact. It
// describes the exported network so the server never has to introspect
// the ONNX graph itself.
type Metadata struct {
	InputShape  []int64  `json:"input_shape"`
	OutputShape []int64  `json:"output_shape"`
	Classes     []string `json:"classes"`
	ImageSize   int      `json:"image_size"`
	TotalParams int64    `json:"total_params"`
	Layers      int      `json:"layers"`
	Accuracy    float64  `json:"accuracy"`
}

// Prediction is the result of a single forward pass.
type Prediction struct {
	Class      string             `json:"prediction"`
	Confidence float32            `json:"confidence"`
	Severity   string             `json:"severity_level"`
	Scores     map[string]float32 `json:"scores"`
}

// Info is the payload served on /model/info.
type Info struct {
	ModelLoaded bool    `json:"model_loaded"`
	InputShape  []int64 `json:"input_shape,omitempty"`
	OutputShape []int64 `json:"output_shape,omitempty"`
	TotalParams int64   `json:"total_params,omitempty"`
	Layers      int     `json:"layers,omitempty"`
	ModelPath   string  `json:"model_path,omitempty"`
}
