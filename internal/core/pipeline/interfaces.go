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

// Package pipeline provides the building blocks for composing a request
// workflow as an ordered chain of commands. Each command is an atomic unit
// of work that reads its inputs from a shared context, does one thing, and
// writes its outputs back for the commands after it. This file defines the
// interfaces that govern every component of the pattern.
package pipeline

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CtxIn and CtxOut are the default keys used to pipe the primary data flow
// between adjacent commands in a chain.
const (
	// CtxIn is the default key for a command's primary input. The chain
	// populates it with the previous command's output.
	CtxIn = "__IN__"
	// CtxOut is the default key where a command places its primary output.
	// The chain moves the value at this key to CtxIn before the next command.
	CtxOut = "__OUT__"
)

// Context is the shared state object passed through a chain. It acts as a
// property bag for one workflow execution, carrying data and errors between
// commands alongside the standard Go context for cancellation and tracing.
type Context interface {
	// SetContext sets the standard Go context. The chain updates it around
	// each command so spans nest correctly.
	SetContext(ctx context.Context)

	// GetContext returns the standard Go context.
	GetContext() context.Context

	// Add stores a key-value pair. It returns the Context for chaining.
	Add(key string, value interface{}) Context

	// Get returns the value stored under key, or nil.
	Get(key string) interface{}

	// Remove deletes the value stored under key.
	Remove(key string)

	// AddError records an error, keyed by the command that produced it.
	AddError(key string, err error)

	// GetErrors returns all recorded errors keyed by command name.
	GetErrors() map[string]error

	// HasErrors reports whether any command has recorded an error.
	HasErrors() bool
}

// Executable is anything with a core execution step.
type Executable interface {
	// Execute runs the business logic, reading from and writing to the
	// shared Context. Failures are recorded with Context.AddError rather
	// than returned.
	Execute(ctx Context)
}

// Command is an atomic, individually traceable unit of work: the fundamental
// building block of a workflow.
type Command interface {
	Executable

	// GetName returns the command's unique name for logs and telemetry.
	GetName() string

	// GetInputParam returns the context key for the command's primary input.
	GetInputParam() string

	// GetOutputParam returns the context key for the command's primary output.
	GetOutputParam() string

	// IsExecutable checks the precondition: can this command run with the
	// current state of the context?
	IsExecutable(ctx Context) bool

	// GetTracer returns the command's OpenTelemetry tracer.
	GetTracer() trace.Tracer

	// GetMeter returns the command's OpenTelemetry meter.
	GetMeter() metric.Meter

	// GetSuccessCounter returns the counter incremented on success.
	GetSuccessCounter() metric.Int64Counter

	// GetErrorCounter returns the counter incremented on failure.
	GetErrorCounter() metric.Int64Counter
}

// Chain is a Command composed of other Commands executed in order. Chains
// nest: a chain can itself be a step of a larger chain.
type Chain interface {
	Command

	// AddCommand appends a command to the execution sequence and returns the
	// chain for fluent construction.
	AddCommand(command Command) Chain

	// ContinueOnFailure controls whether the chain keeps executing commands
	// after one of them records an error. The default is to stop.
	ContinueOnFailure(continueOnFailure bool) Chain
}
