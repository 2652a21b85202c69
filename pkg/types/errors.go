package types

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for fatal pipeline conditions.
var (
	// ErrEmptyJoin indicates the owner-property join produced zero rows.
	ErrEmptyJoin = errors.New("join produced no rows")

	// ErrEmptySchema indicates no usable feature column remained after selection.
	ErrEmptySchema = errors.New("no usable feature columns after selection")

	// ErrModelNotLoaded indicates serving was invoked before the trained
	// artifact was loaded into process state.
	ErrModelNotLoaded = errors.New("model artifact not loaded")
)

// SchemaError reports required columns missing from a raw input table.
// It is raised before any transformation touches the table.
type SchemaError struct {
	Table   string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s missing required columns: %s", e.Table, strings.Join(e.Missing, ", "))
}

// InsufficientClassSamplesError reports a label class too small to stratify:
// stratified splitting needs at least one example of every class in each
// partition, so every class must have two or more members.
type InsufficientClassSamplesError struct {
	Class string
	Count int
}

func (e *InsufficientClassSamplesError) Error() string {
	return fmt.Sprintf("class %q has %d sample(s); stratified split requires at least 2", e.Class, e.Count)
}

// MissingFeatureError reports a required feature absent from a serving
// payload and not recoverable by derivation or imputation.
type MissingFeatureError struct {
	Feature string
}

func (e *MissingFeatureError) Error() string {
	return fmt.Sprintf("feature %q is missing and cannot be derived or imputed", e.Feature)
}
