// Package tone builds ffmpeg command lines that synthesise test tones with
// the lavfi aevalsrc source.
package tone

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Wave is a waveform shape.
type Wave string

const (
	Sine     Wave = "sine"
	Square   Wave = "square"
	Triangle Wave = "triangle"
	Sawtooth Wave = "sawtooth"
)

// Waves lists the supported waveforms.
var Waves = []Wave{Sine, Square, Triangle, Sawtooth}

// Accepted parameter ranges.
const (
	MinFreq       = 20.0
	MaxFreq       = 20000.0
	MinDuty       = 1.0
	MaxDuty       = 99.0
	MinAmplitude  = 0.05
	MaxAmplitude  = 1.0
	MinSampleRate = 8000
	MaxSampleRate = 192000
)

// pi is embedded literally into the ffmpeg expression.
const pi = "3.14159265"

// ErrInvalidParams is matched by every *ValidationError.
var ErrInvalidParams = errors.New("tone: invalid parameters")

// ValidationError reports a rejected parameter.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("tone: %s %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidParams) hold.
func (e *ValidationError) Is(target error) bool { return target == ErrInvalidParams }

// Params describes the tone to generate.
type Params struct {
	Wave       Wave    `json:"wave" yaml:"wave"`
	Freq       float64 `json:"freq" yaml:"freq"`
	Duration   float64 `json:"duration" yaml:"duration"`
	Duty       float64 `json:"duty" yaml:"duty"` // percent, square only
	Amplitude  float64 `json:"amplitude" yaml:"amplitude"`
	SampleRate int     `json:"sample_rate" yaml:"sample_rate"`
	Output     string  `json:"output" yaml:"output"`
}

// DefaultParams returns a one second 440 Hz sine at half amplitude.
func DefaultParams() Params {
	return Params{
		Wave:       Sine,
		Freq:       440,
		Duration:   1,
		Duty:       50,
		Amplitude:  0.5,
		SampleRate: 44100,
		Output:     "tone.wav",
	}
}

// Validate checks the parameters in the order a user fixes them.
func (p Params) Validate() error {
	if p.Wave == "" {
		return &ValidationError{Field: "wave", Reason: "is required"}
	}
	if !p.Wave.valid() {
		return &ValidationError{Field: "wave", Reason: fmt.Sprintf("must be one of %s, got %q", waveNames(), p.Wave)}
	}
	if !finite(p.Freq) || p.Freq < MinFreq || p.Freq > MaxFreq {
		return &ValidationError{Field: "freq", Reason: fmt.Sprintf("must be between %g and %g Hz", MinFreq, MaxFreq)}
	}
	if !finite(p.Duration) || p.Duration <= 0 {
		return &ValidationError{Field: "duration", Reason: "must be a finite number greater than 0 s"}
	}
	if p.Wave == Square && (!finite(p.Duty) || p.Duty < MinDuty || p.Duty > MaxDuty) {
		return &ValidationError{Field: "duty", Reason: fmt.Sprintf("must be between %g%% and %g%% for square wave", MinDuty, MaxDuty)}
	}
	if !finite(p.Amplitude) || p.Amplitude < MinAmplitude || p.Amplitude > MaxAmplitude {
		return &ValidationError{Field: "amplitude", Reason: fmt.Sprintf("must be between %g and %g", MinAmplitude, MaxAmplitude)}
	}
	if p.SampleRate < MinSampleRate || p.SampleRate > MaxSampleRate {
		return &ValidationError{Field: "sample_rate", Reason: fmt.Sprintf("must be between %d and %d Hz", MinSampleRate, MaxSampleRate)}
	}
	if strings.TrimSpace(p.Output) == "" {
		return &ValidationError{Field: "output", Reason: "file name is required"}
	}
	return nil
}

// Expression returns the aevalsrc expression for p. Commas are escaped for
// the lavfi filter graph parser.
func Expression(p Params) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}

	freq := num(p.Freq)
	amp := num(p.Amplitude)
	switch p.Wave {
	case Square:
		period := 1 / p.Freq
		high := period * p.Duty / 100
		return fmt.Sprintf(`if(lt(mod(t\,%s)\,%s)\,%s\,-%s)`, fixed6(period), fixed6(high), amp, amp), nil
	case Triangle:
		return fmt.Sprintf(`(2*abs(2*mod(%s*t\,1)-1)-1)*%s`, freq, amp), nil
	case Sawtooth:
		return fmt.Sprintf(`(2*mod(%s*t\,1)-1)*%s`, freq, amp), nil
	default:
		return fmt.Sprintf("sin(2*%s*%s*t)*%s", pi, freq, amp), nil
	}
}

// Args returns the ffmpeg argv, suitable for exec.Command.
func Args(p Params) ([]string, error) {
	expr, err := Expression(p)
	if err != nil {
		return nil, err
	}
	src := fmt.Sprintf("aevalsrc=%s:s=%d:d=%s", expr, p.SampleRate, num(p.Duration))
	return []string{"ffmpeg", "-f", "lavfi", "-i", src, "-c:a", "pcm_s16le", p.Output}, nil
}

// Command returns the ffmpeg invocation as a single shell line.
func Command(p Params) (string, error) {
	args, err := Args(p)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`%s %s %s %s "%s" %s %s %s`,
		args[0], args[1], args[2], args[3], args[4], args[5], args[6], args[7]), nil
}

// ParseWave maps a name to a Wave, case-insensitively.
func ParseWave(s string) (Wave, error) {
	w := Wave(strings.ToLower(strings.TrimSpace(s)))
	if !w.valid() {
		return "", &ValidationError{Field: "wave", Reason: fmt.Sprintf("must be one of %s, got %q", waveNames(), s)}
	}
	return w, nil
}

func (w Wave) valid() bool {
	for _, v := range Waves {
		if w == v {
			return true
		}
	}
	return false
}

func waveNames() string {
	names := make([]string, len(Waves))
	for i, w := range Waves {
		names[i] = string(w)
	}
	return strings.Join(names, ", ")
}

// finite reports whether v is neither NaN nor an infinity.
func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func fixed6(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
