package shim

import (
	"github.com/rishav/wasm-rr/internal/hostapi"
	"github.com/rishav/wasm-rr/internal/playback"
	"github.com/rishav/wasm-rr/internal/recorder"
	"github.com/rishav/wasm-rr/internal/trace"
)

// RecordEnvironment calls the real backend and records the result for
// get_environment/get_arguments/initial_cwd.
type RecordEnvironment struct {
	Backend hostapi.Environment
	Rec     *recorder.Recorder
}

func (s *RecordEnvironment) GetEnvironment() ([]hostapi.EnvVar, error) {
	vars, err := s.Backend.GetEnvironment()
	if err != nil {
		return nil, backendErr("environment.get_environment", err)
	}
	traceVars := make([]trace.EnvVar, len(vars))
	for i, v := range vars {
		traceVars[i] = trace.EnvVar{Name: v.Name, Value: v.Value}
	}
	s.Rec.RecordEnvironment(traceVars)
	return vars, nil
}

func (s *RecordEnvironment) GetArguments() ([]string, error) {
	args, err := s.Backend.GetArguments()
	if err != nil {
		return nil, backendErr("environment.get_arguments", err)
	}
	s.Rec.RecordArguments(args)
	return args, nil
}

func (s *RecordEnvironment) InitialCwd() (*string, error) {
	cwd, err := s.Backend.InitialCwd()
	if err != nil {
		return nil, backendErr("environment.initial_cwd", err)
	}
	s.Rec.RecordInitialCwd(cwd)
	return cwd, nil
}

// ReplayEnvironment returns the next recorded environment/arguments/cwd
// payload.
type ReplayEnvironment struct {
	PB *playback.Playback
}

func (s *ReplayEnvironment) GetEnvironment() ([]hostapi.EnvVar, error) {
	e, err := s.PB.NextEnvironment()
	if err != nil {
		return nil, err
	}
	out := make([]hostapi.EnvVar, len(e.Vars))
	for i, v := range e.Vars {
		out[i] = hostapi.EnvVar{Name: v.Name, Value: v.Value}
	}
	return out, nil
}

func (s *ReplayEnvironment) GetArguments() ([]string, error) {
	e, err := s.PB.NextArguments()
	if err != nil {
		return nil, err
	}
	return e.Args, nil
}

func (s *ReplayEnvironment) InitialCwd() (*string, error) {
	e, err := s.PB.NextInitialCwd()
	if err != nil {
		return nil, err
	}
	return e.Cwd, nil
}
