package shim

import (
	"github.com/rishav/wasm-rr/internal/hostapi"
	"github.com/rishav/wasm-rr/internal/playback"
	"github.com/rishav/wasm-rr/internal/recorder"
	"github.com/rishav/wasm-rr/internal/rrerr"
)

// RecordRandom calls the real backend and records the result for
// get_random_bytes/get_random_u64.
type RecordRandom struct {
	Backend hostapi.Random
	Rec     *recorder.Recorder
}

func (s *RecordRandom) GetRandomBytes(n int) ([]byte, error) {
	b, err := s.Backend.GetRandomBytes(n)
	if err != nil {
		return nil, backendErr("random.get_random_bytes", err)
	}
	s.Rec.RecordRandomBytes(b)
	return b, nil
}

func (s *RecordRandom) GetRandomU64() (uint64, error) {
	v, err := s.Backend.GetRandomU64()
	if err != nil {
		return 0, backendErr("random.get_random_u64", err)
	}
	s.Rec.RecordRandomU64(v)
	return v, nil
}

// ReplayRandom returns the next recorded random value, validating that a
// requested byte length matches the recorded length (spec §4.5, §8 "Random
// length consistency").
type ReplayRandom struct {
	PB *playback.Playback
}

func (s *ReplayRandom) GetRandomBytes(n int) ([]byte, error) {
	e, err := s.PB.NextRandomBytes()
	if err != nil {
		return nil, err
	}
	if len(e.Bytes) != n {
		return nil, rrerr.RandomLengthMismatch(n, len(e.Bytes))
	}
	return e.Bytes, nil
}

func (s *ReplayRandom) GetRandomU64() (uint64, error) {
	e, err := s.PB.NextRandomU64()
	if err != nil {
		return 0, err
	}
	return e.Value, nil
}

// RecordInsecureRandom is the insecure-RNG analogue of RecordRandom,
// covering random.insecure.* and random.insecure_seed.
type RecordInsecureRandom struct {
	Backend hostapi.InsecureRandom
	Rec     *recorder.Recorder
}

func (s *RecordInsecureRandom) GetInsecureRandomBytes(n int) ([]byte, error) {
	b, err := s.Backend.GetInsecureRandomBytes(n)
	if err != nil {
		return nil, backendErr("random.insecure.get_insecure_random_bytes", err)
	}
	s.Rec.RecordInsecureRandomBytes(b)
	return b, nil
}

func (s *RecordInsecureRandom) GetInsecureRandomU64() (uint64, error) {
	v, err := s.Backend.GetInsecureRandomU64()
	if err != nil {
		return 0, backendErr("random.insecure.get_insecure_random_u64", err)
	}
	s.Rec.RecordInsecureRandomU64(v)
	return v, nil
}

func (s *RecordInsecureRandom) InsecureSeed() (uint64, uint64, error) {
	lo, hi, err := s.Backend.InsecureSeed()
	if err != nil {
		return 0, 0, backendErr("random.insecure_seed", err)
	}
	s.Rec.RecordInsecureSeed(lo, hi)
	return lo, hi, nil
}

// ReplayInsecureRandom returns the next recorded insecure-RNG value,
// applying the same length check as ReplayRandom.
type ReplayInsecureRandom struct {
	PB *playback.Playback
}

func (s *ReplayInsecureRandom) GetInsecureRandomBytes(n int) ([]byte, error) {
	e, err := s.PB.NextInsecureRandomBytes()
	if err != nil {
		return nil, err
	}
	if len(e.Bytes) != n {
		return nil, rrerr.RandomLengthMismatch(n, len(e.Bytes))
	}
	return e.Bytes, nil
}

func (s *ReplayInsecureRandom) GetInsecureRandomU64() (uint64, error) {
	e, err := s.PB.NextInsecureRandomU64()
	if err != nil {
		return 0, err
	}
	return e.Value, nil
}

func (s *ReplayInsecureRandom) InsecureSeed() (uint64, uint64, error) {
	e, err := s.PB.NextInsecureSeed()
	if err != nil {
		return 0, 0, err
	}
	return e.Lo, e.Hi, nil
}
