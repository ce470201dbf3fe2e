package annotation

import (
	"cmp"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/orcasound/orcaprep/internal/errors"
	"github.com/orcasound/orcaprep/internal/logger"
	"github.com/orcasound/orcaprep/internal/myaudio"
)

// FileDuration is one row of a file duration table.
type FileDuration struct {
	Filename string // relative to the audio directory, slash separated
	Duration float64
}

// FileDurationTable lists the supported audio files directly inside dir with their
// durations. Subdirectories are not searched. Files whose header cannot be read are
// logged and left out.
func FileDurationTable(dir string, durations *myaudio.DurationCache) ([]FileDuration, error) {
	if durations == nil {
		durations = myaudio.NewDurationCache()
	}
	log := GetLogger()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.New(err).
			Component("annotation").
			Category(errors.CategoryFileIO).
			Context("operation", "file_duration_table").
			Context("dir", dir).
			Build()
	}

	var out []FileDuration
	for _, entry := range entries {
		if entry.IsDir() || !myaudio.IsSupported(entry.Name()) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		seconds, err := durations.Duration(path)
		if err != nil {
			log.Warn("skipping unreadable audio file",
				logger.String("path", path),
				logger.Error(err))
			continue
		}
		out = append(out, FileDuration{Filename: normalizeFilename(entry.Name()), Duration: seconds})
	}

	slices.SortFunc(out, func(a, b FileDuration) int {
		return cmp.Compare(a.Filename, b.Filename)
	})
	return out, nil
}

// BackgroundOptions controls RandomBackground.
type BackgroundOptions struct {
	Length float64 // window length in seconds
	Num    int     // number of selections wanted
	// MaxAttempts bounds the draws per wanted selection.
	MaxAttempts int
	// Seed makes the draw reproducible; 0 draws a fresh seed.
	Seed int64
}

// RandomBackground draws up to opts.Num windows that do not overlap any of the given
// annotations. A file is picked with probability proportional to its duration and the
// start is uniform over the positions where the window fits. When the attempt budget runs
// out fewer windows are returned and a warning is logged. The result is sorted by filename
// then start, with sel_id counting from 0 within a file and label 0.
func RandomBackground(annots []Selection, files []FileDuration, opts BackgroundOptions) ([]Selection, error) {
	if opts.Length <= 0 {
		return nil, errors.Newf("background length must be positive, got %v", opts.Length).
			Component("annotation").
			Category(errors.CategoryValidation).
			Build()
	}
	if opts.Num <= 0 {
		return nil, nil
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1000
	}
	log := GetLogger()

	eligible := make([]FileDuration, 0, len(files))
	cumulative := make([]float64, 0, len(files))
	var total float64
	for _, f := range files {
		if f.Duration < opts.Length {
			continue
		}
		eligible = append(eligible, f)
		total += f.Duration
		cumulative = append(cumulative, total)
	}
	if len(eligible) == 0 {
		log.Warn("no audio file is long enough for background selections",
			logger.Float64("length", opts.Length),
			logger.Int("files", len(files)))
		return nil, nil
	}

	byFile := make(map[string][]Selection)
	for _, a := range annots {
		byFile[a.Filename] = append(byFile[a.Filename], a)
	}

	rng := newRand(opts.Seed)
	budget := opts.Num * opts.MaxAttempts
	out := make([]Selection, 0, opts.Num)

	for attempts := 0; len(out) < opts.Num && attempts < budget; attempts++ {
		idx, _ := slices.BinarySearch(cumulative, rng.Float64()*total)
		f := eligible[min(idx, len(eligible)-1)]

		start := rng.Float64() * (f.Duration - opts.Length)
		cand := Selection{Filename: f.Filename, Start: start, End: start + opts.Length}

		if slices.ContainsFunc(byFile[f.Filename], cand.Overlaps) {
			continue
		}
		out = append(out, cand)
	}

	if len(out) < opts.Num {
		log.Warn("drew fewer background selections than requested",
			logger.Int("requested", opts.Num),
			logger.Int("drawn", len(out)),
			logger.Int("attempts", budget))
	}

	sortSelections(out)
	assignIDs(out)
	return out, nil
}

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
}
