// Package training serves the static training data the cloud deployment
// ships with. The model is trained elsewhere; this process only reports
// the recorded rounds, it never runs a training loop.
package training

import (
	"encoding/json"
	"fmt"
	"os"
)

type ClientAccuracy struct {
	Client   string  `json:"client"`
	Accuracy float64 `json:"accuracy"`
}

type Round struct {
	Round    int              `json:"round"`
	Accuracy float64          `json:"accuracy"`
	Clients  []ClientAccuracy `json:"clients"`
}

type History struct {
	Rounds []Round `json:"history"`
}

// Status is the static-mode payload served on /status.
type Status struct {
	Round             int     `json:"round"`
	GlobalAccuracy    float64 `json:"global_accuracy"`
	ConnectedClients  int     `json:"connected_clients"`
	TotalRounds       int     `json:"total_rounds"`
	LastUpdate        string  `json:"last_update"`
	CloudMode         bool    `json:"cloud_mode"`
	FederatedLearning bool    `json:"federated_learning"`
	ModelStatus       string  `json:"model_status"`
}

// Default returns the history recorded for the deployed model.
func Default() History {
	return History{Rounds: []Round{
		{Round: 1, Accuracy: 0.85, Clients: []ClientAccuracy{
			{Client: "hospital_A", Accuracy: 0.84},
			{Client: "hospital_B", Accuracy: 0.86},
		}},
		{Round: 2, Accuracy: 0.89, Clients: []ClientAccuracy{
			{Client: "hospital_A", Accuracy: 0.88},
			{Client: "hospital_B", Accuracy: 0.90},
		}},
		{Round: 3, Accuracy: 0.92, Clients: []ClientAccuracy{
			{Client: "hospital_A", Accuracy: 0.91},
			{Client: "hospital_B", Accuracy: 0.93},
		}},
	}}
}

// Load reads a history file bundled at deploy time. An empty path means
// the compiled-in defaults.
func Load(path string) (History, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return History{}, fmt.Errorf("failed to read history: %w", err)
	}

	var h History
	if err := json.Unmarshal(data, &h); err != nil {
		return History{}, fmt.Errorf("failed to parse history: %w", err)
	}
	if len(h.Rounds) == 0 {
		return History{}, fmt.Errorf("history file %s has no rounds", path)
	}

	return h, nil
}

// Status derives the static system status from the last recorded
// round. A history with no rounds reports round zero.
func (h History) Status() Status {
	s := Status{
		ConnectedClients:  0,
		TotalRounds:       len(h.Rounds),
		LastUpdate:        "Training completed locally",
		CloudMode:         true,
		FederatedLearning: false,
		ModelStatus:       "Trained and deployed",
	}

	if len(h.Rounds) > 0 {
		last := h.Rounds[len(h.Rounds)-1]
		s.Round = last.Round
		s.GlobalAccuracy = last.Accuracy
	}

	return s
}
