// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pipeline

import (
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// meterNamespace keeps the gateway's metrics from colliding with metrics
// emitted by libraries that share the global meter provider.
const meterNamespace = "github.com/jaycherian/mam-search-gateway"

// BaseCommand is the default Command implementation. Concrete commands embed
// it to inherit naming, the default input/output parameter plumbing used by
// BaseChain's piping, and ready-made OpenTelemetry instrumentation.
type BaseCommand struct {
	Name            string              // Unique name, used for tracing and metrics.
	InputParamName  string              // Context key for the primary input; CtxIn when empty.
	OutputParamName string              // Context key for the primary output; CtxOut when empty.
	Tracer          trace.Tracer        // Tracer for creating per-command spans.
	Meter           metric.Meter        // Meter for creating command metrics.
	SuccessCounter  metric.Int64Counter // Incremented when the command completes cleanly.
	ErrorCounter    metric.Int64Counter // Incremented when the command records an error.
}

// NewBaseCommand creates a BaseCommand with its OpenTelemetry plumbing
// attached.
//
// Inputs:
//   - name: The command's unique name.
//
// Outputs:
//   - *BaseCommand: A command ready for embedding.
func NewBaseCommand(name string) *BaseCommand {
	meter := otel.Meter(meterNamespace)

	successCounter, err := meter.Int64Counter(fmt.Sprintf("%s.counter.success", name))
	if err != nil {
		slog.Warn("failed to create success counter", "command", name, "error", err)
	}
	errorCounter, err := meter.Int64Counter(fmt.Sprintf("%s.counter.error", name))
	if err != nil {
		slog.Warn("failed to create error counter", "command", name, "error", err)
	}

	return &BaseCommand{
		Name:           name,
		Tracer:         otel.Tracer(name),
		Meter:          meter,
		SuccessCounter: successCounter,
		ErrorCounter:   errorCounter,
	}
}

// GetName returns the command's name.
func (c *BaseCommand) GetName() string {
	return c.Name
}

// IsExecutable provides the default precondition: the context is valid and
// the command's primary input is present.
func (c *BaseCommand) IsExecutable(ctx Context) bool {
	return ctx != nil && ctx.Get(c.GetInputParam()) != nil && ctx.GetContext() != nil
}

// GetInputParam returns the configured input key, defaulting to CtxIn so the
// chain's piping works without configuration.
func (c *BaseCommand) GetInputParam() string {
	if len(c.InputParamName) == 0 {
		return CtxIn
	}
	return c.InputParamName
}

// GetOutputParam returns the configured output key, defaulting to CtxOut.
func (c *BaseCommand) GetOutputParam() string {
	if len(c.OutputParamName) == 0 {
		return CtxOut
	}
	return c.OutputParamName
}

// GetTracer returns the command's tracer.
func (c *BaseCommand) GetTracer() trace.Tracer {
	return c.Tracer
}

// GetMeter returns the command's meter.
func (c *BaseCommand) GetMeter() metric.Meter {
	return c.Meter
}

// GetSuccessCounter returns the command's success counter.
func (c *BaseCommand) GetSuccessCounter() metric.Int64Counter {
	return c.SuccessCounter
}

// GetErrorCounter returns the command's error counter.
func (c *BaseCommand) GetErrorCounter() metric.Int64Counter {
	return c.ErrorCounter
}
