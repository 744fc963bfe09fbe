// SPDX-License-Identifier: MIT

package model

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/gridstate/calcerr"
	"github.com/katalvlaran/gridstate/dataset"
	"github.com/katalvlaran/gridstate/topology"
)

// ValidateInput checks ds without building a Model: schema and ranges first
// (*calcerr.ValidationError), then referential integrity
// (*calcerr.InvalidTopologyError).
func ValidateInput(ds *dataset.Dataset) error {
	if err := dataset.Validate(ds); err != nil {
		return err
	}
	_, err := topology.Build(ds)

	return err
}

// ValidateBatch checks base like ValidateInput, then every update against
// base: unknown ids and out-of-range overrides are reported together in one
// *calcerr.ValidationError whose messages name the scenario.
func ValidateBatch(base *dataset.Dataset, updates []dataset.UpdateDataset) error {
	if err := ValidateInput(base); err != nil {
		return err
	}

	return validateUpdates(base, updates)
}

func validateUpdates(base *dataset.Dataset, updates []dataset.UpdateDataset) error {
	var issues calcerr.Collector
	for i := range updates {
		d, err := dataset.Apply(base, &updates[i])
		if err == nil {
			err = dataset.Validate(d)
		}
		if err == nil {
			continue
		}
		var ve *calcerr.ValidationError
		if !errors.As(err, &ve) {
			return fmt.Errorf("model: scenario %d: %w", i, err)
		}
		for _, is := range ve.Issues {
			issues.Addf(is.Component, is.ID, is.Field, "scenario %d: %s", i, is.Message)
		}
	}

	return issues.Validation()
}
