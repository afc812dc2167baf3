package sim

import (
	"testing"

	"github.com/maryam97/pyactr/internal/model"
)

func TestExtract(t *testing.T) {
	press := func(at float64, key rune) model.Event {
		return model.Event{Time: at, Kind: model.EventCompletion, Module: ModuleMotor, Buffer: "manual",
			Completion: &model.Completion{Key: key}}
	}
	tests := []struct {
		name    string
		trace   []model.Event
		want    model.TrialResult
		present bool
	}{
		{"empty", nil, model.TrialResult{}, false},
		{
			"firing and failed retrieval ignored",
			[]model.Event{
				{Time: 0.05, Kind: model.EventProductionFired, Firing: &model.Firing{Production: "press"}},
				{Time: 0.3, Kind: model.EventCompletion, Module: ModuleRetrieval, Completion: &model.Completion{Failed: true}},
				press(0.4, 'F'),
			},
			model.TrialResult{ReactionTime: 0.4, Key: "F"},
			true,
		},
		{
			"first press wins",
			[]model.Event{press(0.7, 'J'), press(0.9, 'F')},
			model.TrialResult{ReactionTime: 0.7, Key: "J"},
			true,
		},
		{
			"failed motor request",
			[]model.Event{{Time: 0.1, Kind: model.EventCompletion, Module: ModuleMotor, Completion: &model.Completion{Failed: true}}},
			model.TrialResult{},
			false,
		},
		{
			"key on another module",
			[]model.Event{{Time: 0.1, Kind: model.EventCompletion, Module: ModuleVision, Completion: &model.Completion{Key: 'J'}}},
			model.TrialResult{},
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Extract(tt.trace)
			if ok != tt.present || got != tt.want {
				t.Errorf("Extract() = %+v, %v; want %+v, %v", got, ok, tt.want, tt.present)
			}
		})
	}
}
