package pipeline

import "github.com/orcasound/orcaprep/internal/errors"

// ErrIncomplete is returned when a run finished but one or more clips or plots failed.
var ErrIncomplete = errors.NewStd("one or more rows failed")
