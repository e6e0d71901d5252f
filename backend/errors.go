// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package backend

import (
	"errors"
	"fmt"
)

// ErrorCode classifies an engine failure so callers can branch without
// string matching.
type ErrorCode string

const (
	// CodeNotFound means a referenced game or player does not exist.
	CodeNotFound ErrorCode = "not_found"
	// CodeValidation means the command itself is malformed (empty field,
	// out-of-range count, wrong collection size).
	CodeValidation ErrorCode = "validation"
	// CodeRuleViolation means a non-negotiable scoring rule was breached.
	CodeRuleViolation ErrorCode = "rule_violation"
	// CodeConfigurableRule means an optional, caller-enabled rule was breached.
	CodeConfigurableRule ErrorCode = "rule_violation_configurable"
	// CodeStateMachine means an illegal game-status transition was attempted.
	CodeStateMachine ErrorCode = "state_machine"
)

// RuleName identifies which scoring rule rejected a transition.
type RuleName string

const (
	RuleNoPassing        RuleName = "no_passing"
	RuleRBIBound         RuleName = "rbi_bound"
	RuleMaxOuts          RuleName = "max_outs"
	RuleErrorAttribution RuleName = "error_attribution"
	RuleRunningError     RuleName = "running_error"
)

// EngineError is the typed failure returned by every engine operation.
// All failures are deterministic given the same input; none are transient.
type EngineError struct {
	Code    ErrorCode `json:"code"`
	Rule    RuleName  `json:"rule,omitempty"`
	Message string    `json:"message"`
}

func (e *EngineError) Error() string {
	if e.Rule != "" {
		return fmt.Sprintf("%s (%s): %s", e.Code, e.Rule, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// AsEngineError extracts an *EngineError from an error chain.
func AsEngineError(err error) (*EngineError, bool) {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee, true
	}
	return nil, false
}

func notFoundErr(format string, args ...any) *EngineError {
	return &EngineError{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

func validationErr(format string, args ...any) *EngineError {
	return &EngineError{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

func ruleErr(rule RuleName, format string, args ...any) *EngineError {
	return &EngineError{Code: CodeRuleViolation, Rule: rule, Message: fmt.Sprintf(format, args...)}
}

func configRuleErr(rule RuleName, format string, args ...any) *EngineError {
	return &EngineError{Code: CodeConfigurableRule, Rule: rule, Message: fmt.Sprintf(format, args...)}
}

func stateErr(format string, args ...any) *EngineError {
	return &EngineError{Code: CodeStateMachine, Message: fmt.Sprintf(format, args...)}
}
