package controller

import (
	"errors"

	"github.com/yildizm/SignScan/internal/common"
	"github.com/yildizm/SignScan/internal/detect"
	"github.com/yildizm/SignScan/internal/preview"
)

// Phase is the controller's current discrete state
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseReady     Phase = "ready"
	PhaseAnalyzing Phase = "analyzing"
	PhaseSucceeded Phase = "succeeded"
	PhaseFailed    Phase = "failed"
)

// String implements fmt.Stringer
func (p Phase) String() string {
	return string(p)
}

// Failure is the user-facing outcome of a failed analysis
type Failure struct {
	Message string           `json:"message"`
	Kind    detect.ErrorKind `json:"kind"`
}

// State is the single source of truth for the view. Transitions return a new
// value; a State is never modified after it has been handed out.
type State struct {
	File    *common.SelectedFile   `json:"file,omitempty"`
	Preview *preview.Handle        `json:"preview,omitempty"`
	Phase   Phase                  `json:"phase"`
	Result  *common.AnalysisResult `json:"result,omitempty"`
	Err     *Failure               `json:"error,omitempty"`

	// Settling is set while a superseded request has not yet reported back
	Settling bool `json:"settling,omitempty"`
}

// Initial returns the idle state
func Initial() State {
	return State{Phase: PhaseIdle}
}

// withSelection installs a new file and preview, clearing any outcome
func withSelection(s State, file *common.SelectedFile, h *preview.Handle) State {
	return State{
		File:     file,
		Preview:  h,
		Phase:    PhaseReady,
		Settling: s.Settling,
	}
}

// begin enters Analyzing, clearing the previous outcome
func begin(s State) State {
	s.Phase = PhaseAnalyzing
	s.Result = nil
	s.Err = nil
	return s
}

func succeed(s State, result *common.AnalysisResult) State {
	s.Phase = PhaseSucceeded
	s.Result = result
	s.Err = nil
	return s
}

func fail(s State, f *Failure) State {
	s.Phase = PhaseFailed
	s.Result = nil
	s.Err = f
	return s
}

func settled(s State) State {
	s.Settling = false
	return s
}

// Check reports the first violated state invariant, if any
func (s State) Check() error {
	switch {
	case (s.Result != nil) != (s.Phase == PhaseSucceeded):
		return errors.New("result must be present exactly when phase is succeeded")
	case (s.Err != nil) != (s.Phase == PhaseFailed):
		return errors.New("error must be present exactly when phase is failed")
	case (s.Preview != nil) != (s.File != nil):
		return errors.New("preview must be present exactly when a file is selected")
	case s.File == nil && s.Phase != PhaseIdle:
		return errors.New("only idle has no file")
	}
	return nil
}

// CanAnalyze reports whether the analyze affordance is enabled
func (s State) CanAnalyze() bool {
	return s.File != nil && s.Phase != PhaseAnalyzing && !s.Settling
}
