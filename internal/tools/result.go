// Copyright (c) Microsoft. All rights reserved.

package tools

import (
	"encoding/json"
	"fmt"
)

// Status is the discriminant every [Result] carries on the wire.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Result is the outcome of a tool call. Tools never return Go errors for
// domain failures; they return a [Failure] instead. The concrete types are
// [Report], [Found] and [Failure].
type Result interface {
	Status() Status
	// Fields returns the wire form, e.g. {"status":"success","report":"..."}.
	Fields() map[string]any
	sealed()
}

// Report is a successful lookup carrying human-readable text.
type Report struct {
	Text string
}

// Found is a successful remote query carrying decoded JSON.
type Found struct {
	Results any
}

// Failure is an error outcome carrying a message for the model.
type Failure struct {
	Message string
}

// Failf formats a [Failure].
func Failf(format string, args ...any) Failure {
	return Failure{Message: fmt.Sprintf(format, args...)}
}

func (Report) Status() Status  { return StatusSuccess }
func (Found) Status() Status   { return StatusSuccess }
func (Failure) Status() Status { return StatusError }

func (r Report) Fields() map[string]any {
	return map[string]any{"status": StatusSuccess, "report": r.Text}
}

func (r Found) Fields() map[string]any {
	return map[string]any{"status": StatusSuccess, "results": r.Results}
}

func (r Failure) Fields() map[string]any {
	return map[string]any{"status": StatusError, "error_message": r.Message}
}

func (r Report) MarshalJSON() ([]byte, error)  { return json.Marshal(r.Fields()) }
func (r Found) MarshalJSON() ([]byte, error)   { return json.Marshal(r.Fields()) }
func (r Failure) MarshalJSON() ([]byte, error) { return json.Marshal(r.Fields()) }

func (Report) sealed()  {}
func (Found) sealed()   {}
func (Failure) sealed() {}
