package dataset

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Cut points of the shuffled rows of each input file.
const (
	trainingShare   = 0.90
	validationShare = 0.98
)

// SplitOptions configures Split.
type SplitOptions struct {
	InputDir  string
	OutputDir string
	// Seed makes the shuffle reproducible. Zero seeds from the clock.
	Seed int64
}

// SplitResult reports the row counts written per output file.
type SplitResult struct {
	Inputs     []string
	Training   int
	Validation int
	Test       int
}

// Total is the number of rows written across the three outputs.
func (r SplitResult) Total() int { return r.Training + r.Validation + r.Test }

// Split shuffles the rows of every *.csv file in InputDir independently,
// cuts each at 90% and 98%, and writes the concatenated parts to
// training.csv, validation.csv and test.csv in OutputDir. Input files are
// processed in name order.
func Split(opts SplitOptions) (SplitResult, error) {
	var res SplitResult
	inputs, err := csvFiles(opts.InputDir)
	if err != nil {
		return res, err
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	var training, validation, test []Row
	for _, path := range inputs {
		rows, err := ReadRows(path)
		if err != nil {
			return res, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		rng.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })
		tr, va, te := cut(rows)
		training = append(training, tr...)
		validation = append(validation, va...)
		test = append(test, te...)
		res.Inputs = append(res.Inputs, filepath.Base(path))
		log.Debug().Str("file", filepath.Base(path)).Int("rows", len(rows)).Msg("split input")
	}

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return res, fmt.Errorf("create output dir: %w", err)
	}
	for name, rows := range map[string][]Row{TrainingFile: training, ValidationFile: validation, TestFile: test} {
		if err := WriteRows(filepath.Join(opts.OutputDir, name), rows); err != nil {
			return res, fmt.Errorf("write %s: %w", name, err)
		}
	}
	res.Training, res.Validation, res.Test = len(training), len(validation), len(test)
	return res, nil
}

// cut splits rows at int(0.90n) and int(0.98n).
func cut(rows []Row) (training, validation, test []Row) {
	n := len(rows)
	trainingEnd := int(trainingShare * float64(n))
	validationEnd := int(validationShare * float64(n))
	return rows[:trainingEnd], rows[trainingEnd:validationEnd], rows[validationEnd:]
}

func csvFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(e.Name(), ".csv") {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}
