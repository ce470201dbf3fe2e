// conf/validate.go

package conf

import (
	"fmt"
	"slices"
	"strings"

	"github.com/orcasound/orcaprep/internal/errors"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("validation errors: %s", strings.Join(ve.Errors, "; "))
}

// ErrorCategory marks configuration problems as validation errors
func (ve ValidationError) ErrorCategory() errors.ErrorCategory {
	return errors.CategoryValidation
}

// Requirement flags select which groups of settings a command needs.
type Requirement uint8

const (
	NeedAnnotations Requirement = 1 << iota // annotation table path
	NeedAudio                               // audio directory and call time
	NeedClips                               // clip output directories
	NeedPlots                               // plot output directories and case
)

// RequireAll is what the full run needs.
const RequireAll = NeedAnnotations | NeedAudio | NeedClips | NeedPlots

// ValidateSettings checks the settings a command relies on and reports every problem at once.
func ValidateSettings(settings *Settings, need Requirement) error {
	ve := ValidationError{}
	add := func(format string, args ...any) {
		ve.Errors = append(ve.Errors, fmt.Sprintf(format, args...))
	}

	if need&NeedAnnotations != 0 && settings.Input.AnnotationPath == "" {
		add("annotation table path is required (--tsvpath)")
	}

	if need&NeedAudio != 0 {
		if settings.Input.AudioPath == "" {
			add("audio directory is required (--audiospath)")
		}
		if settings.CallTime <= 0 {
			add("call time must be positive, got %g", settings.CallTime)
		}
		if settings.Negatives.MaxAttempts <= 0 {
			add("negatives.maxattempts must be positive, got %d", settings.Negatives.MaxAttempts)
		}
		if !slices.Contains([]string{AlignStart, AlignCenter}, settings.Annotation.Align) {
			add("annotation.align must be %q or %q, got %q", AlignStart, AlignCenter, settings.Annotation.Align)
		}
	}

	if need&NeedClips != 0 {
		if settings.Output.PositiveClips == "" || settings.Output.NegativeClips == "" {
			add("positive and negative clip directories are required")
		}
		if settings.Output.NegativesTable == "" {
			add("output.negativestable is required")
		}
	}

	if need&NeedPlots != 0 {
		if settings.Output.PositivePlots == "" || settings.Output.NegativePlots == "" {
			add("positive and negative plot directories are required")
		}
		validateRenderSettings(settings, add)
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateRenderSettings(settings *Settings, add func(string, ...any)) {
	switch settings.Case {
	case CasePlain, CasePCEN, CasePCENDenoised:
	default:
		add("preprocess case must be 1, 2 or 3, got %d", settings.Case)
	}

	r := &settings.Render
	if r.Engine != EngineNative && r.Engine != EngineSox {
		add("render.engine must be %q or %q, got %q", EngineNative, EngineSox, r.Engine)
	}
	if r.Plain.NFFT <= 0 || r.Plain.Overlap < 0 || r.Plain.Overlap >= r.Plain.NFFT {
		add("render.plain: nfft must be positive and overlap in [0, nfft), got nfft=%d overlap=%d", r.Plain.NFFT, r.Plain.Overlap)
	}
	if r.Mel.SampleRate <= 0 || r.Mel.NFFT <= 0 || r.Mel.HopLength <= 0 || r.Mel.Bands <= 0 {
		add("render.mel: samplerate, nfft, hoplength and bands must be positive")
	}
	if r.Plain.Width <= 0 || r.Plain.Height <= 0 || r.Mel.Width <= 0 || r.Mel.Height <= 0 {
		add("image width and height must be positive")
	}
	if r.PCEN.TimeConstant <= 0 || r.PCEN.Eps <= 0 || r.PCEN.Power <= 0 || r.PCEN.Bias < 0 || r.PCEN.Gain < 0 {
		add("render.pcen: timeconstant, eps and power must be positive, gain and bias non-negative")
	}
	if r.Workers <= 0 {
		add("render.workers must be positive, got %d", r.Workers)
	}
}
