// Copyright (C) 2025 Transient ML Collaboration
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package learn

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"strings"
)

// -----------------------------------------------------------------------------
// CSV loading
// -----------------------------------------------------------------------------

// LoadCSV reads a candidate table from a CSV file.
//
// Description:
//
//	The expected header is "id,label,<feature columns...>"; every feature
//	column is parsed as float64. Rows must all have the header's width.
//
// Inputs:
//   - path: The CSV file.
//
// Outputs:
//   - *Dataset: The loaded dataset, in file order.
//   - error: I/O, header, or parse failures with the offending row.
func LoadCSV(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV parses a candidate table from r. See LoadCSV for the format.
func ReadCSV(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read dataset header: %w", err)
	}
	if len(header) < 3 || strings.ToLower(header[0]) != "id" || strings.ToLower(header[1]) != "label" {
		return nil, fmt.Errorf("dataset header must be id,label,<features...>; got %v", header)
	}
	featureDim := len(header) - 2

	var candidates []Candidate
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read dataset line %d: %w", line, err)
		}
		label, err := strconv.Atoi(strings.TrimSpace(row[1]))
		if err != nil {
			return nil, fmt.Errorf("dataset line %d: bad label %q: %w", line, row[1], err)
		}
		features := make([]float64, featureDim)
		for i := 0; i < featureDim; i++ {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[2+i]), 64)
			if err != nil {
				return nil, fmt.Errorf("dataset line %d: bad feature %q: %w", line, row[2+i], err)
			}
			features[i] = v
		}
		candidates = append(candidates, Candidate{
			ID:       strings.TrimSpace(row[0]),
			Label:    label,
			Features: features,
		})
	}
	return NewDataset(candidates)
}

// -----------------------------------------------------------------------------
// Initial split
// -----------------------------------------------------------------------------

// SplitIDs draws the initial labeled seed and the fixed validation set from
// a dataset, seeded for reproducibility.
//
// Description:
//
//	The candidate ids are shuffled with the given seed; the first
//	validationFraction of them become the validation set and the next
//	initialLabeled become the labeled seed. When the dataset holds more
//	than one class, the seed is adjusted so it contains at least two,
//	otherwise the very first fit would fail by construction rather than
//	by experiment design.
//
// Outputs:
//   - labeled, validation: Disjoint id slices for NewPartition.
//   - error: When the requested sizes do not fit the dataset.
func SplitIDs(d *Dataset, initialLabeled int, validationFraction float64, seed int64) (labeled, validation []string, err error) {
	if initialLabeled < 2 {
		return nil, nil, fmt.Errorf("initial labeled size %d too small", initialLabeled)
	}
	if validationFraction <= 0 || validationFraction >= 1 {
		return nil, nil, fmt.Errorf("validation fraction %v out of (0,1)", validationFraction)
	}

	ids := d.IDs()
	nVal := int(float64(len(ids)) * validationFraction)
	if nVal == 0 {
		nVal = 1
	}
	if nVal+initialLabeled >= len(ids) {
		return nil, nil, fmt.Errorf("split leaves no pool: %d candidates, %d validation, %d labeled",
			len(ids), nVal, initialLabeled)
	}

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })

	validation = ids[:nVal]
	labeled = ids[nVal : nVal+initialLabeled]
	rest := ids[nVal+initialLabeled:]

	// Make sure the seed spans at least two classes when the dataset does.
	seedLabels, err := d.Labels(labeled)
	if err != nil {
		return nil, nil, err
	}
	if len(distinct(seedLabels)) < 2 {
		restLabels, err := d.Labels(rest)
		if err != nil {
			return nil, nil, err
		}
		for i, l := range restLabels {
			if l != seedLabels[0] {
				labeled[len(labeled)-1], rest[i] = rest[i], labeled[len(labeled)-1]
				break
			}
		}
	}
	return labeled, validation, nil
}

func distinct(labels []int) []int {
	set := map[int]bool{}
	var out []int
	for _, l := range labels {
		if !set[l] {
			set[l] = true
			out = append(out, l)
		}
	}
	return out
}
