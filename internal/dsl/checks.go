package dsl

import (
	"fmt"
	"strings"
)

// Messages reported by the checks.
const (
	MsgElseIfWithoutIf   = "$elseif without matching $if"
	MsgElseWithoutIf     = "$else without matching $if"
	MsgMultipleElse      = "Multiple $else at same $if depth"
	MsgEndIfWithoutIf    = "$endif without matching $if"
	MsgMismatchedIf      = "Mismatched $if / $endif"
	MsgGuardNeedsMessage = "$onlyIf requires a non-empty error message"
	MsgArithmetic        = "Arithmetic operators are not allowed in logical conditions; " +
		"use named arithmetic functions such as $sum, $sub, $multi, $divide"
	MsgBulkMutation  = "Bulk operations are not supported: avoid combining $usersWithRole with mutations"
	MsgGlobalVars    = "Global variables used without explicit justification"
	MsgGuardBranches = "$onlyIf should be used for validation, not branching"
)

// SyntaxMessage is the error for a call written without brackets.
func SyntaxMessage(display string) string {
	return fmt.Sprintf("Invalid function syntax: %s must use brackets [..]", display)
}

// LoopMessage is the error for a looping construct.
func LoopMessage(display string) string {
	return fmt.Sprintf("Loops are not supported: %s is invalid", display)
}

// UnclosedMessage is the warning for an argument list that never closes.
func UnclosedMessage(display string) string {
	return fmt.Sprintf("Unclosed brackets: %s[ is never closed", display)
}

// FlowReport is the outcome of CheckFlow.
type FlowReport struct {
	Errors []string

	// Depth is the nesting depth left open at end of input.
	Depth int

	Ifs    int
	EndIfs int
}

// CheckFlow walks the flow keywords in textual order with a depth counter
// and a per-depth else count.
func (d Dialect) CheckFlow(calls Calls) FlowReport {
	var report FlowReport
	elseCounts := []int{0}

	for _, call := range calls {
		switch {
		case call.Is(d.If):
			report.Ifs++
			report.Depth++
			elseCounts = append(elseCounts, 0)

		case call.Is(d.ElseIf):
			if report.Depth == 0 {
				report.Errors = append(report.Errors, MsgElseIfWithoutIf)
			}

		case call.Is(d.Else):
			if report.Depth == 0 {
				report.Errors = append(report.Errors, MsgElseWithoutIf)
				continue
			}
			elseCounts[report.Depth]++
			if elseCounts[report.Depth] > 1 {
				report.Errors = append(report.Errors, MsgMultipleElse)
			}

		case call.Is(d.EndIf):
			report.EndIfs++
			if report.Depth == 0 {
				report.Errors = append(report.Errors, MsgEndIfWithoutIf)
				continue
			}
			elseCounts = elseCounts[:report.Depth]
			report.Depth--
		}
	}

	if report.Depth != 0 {
		report.Errors = append(report.Errors, MsgMismatchedIf)
	}
	return report
}

// CheckGuards reports each guard call whose message argument is missing or blank.
func (d Dialect) CheckGuards(calls Calls) []string {
	var errs []string
	for _, call := range calls {
		if !call.Is(d.Guard) || call.Malformed {
			continue
		}
		if len(call.Args) < 2 || strings.TrimSpace(call.Args[1]) == "" {
			errs = append(errs, MsgGuardNeedsMessage)
		}
	}
	return errs
}

// CheckLogic reports each $if or guard condition containing an arithmetic operator.
func (d Dialect) CheckLogic(calls Calls) []string {
	var errs []string
	for _, call := range calls {
		if call.Malformed || !(call.Is(d.If) || call.Is(d.Guard)) {
			continue
		}
		if strings.ContainsAny(call.Arg(0), "+-*/") {
			errs = append(errs, MsgArithmetic)
		}
	}
	return errs
}

// CheckSyntax reports top-level calls written without brackets. Bracketless
// keywords are exempt. Calls nested in arguments are not reported because
// message text routinely embeds bare $placeholders.
func (d Dialect) CheckSyntax(calls Calls) (errs, warnings []string) {
	for _, call := range calls {
		if call.Unclosed {
			warnings = append(warnings, UnclosedMessage(d.Display(call.Name)))
		}
		if !call.Malformed || call.Depth > 0 || d.IsBracketless(call.Name) {
			continue
		}
		errs = append(errs, SyntaxMessage(d.Display(call.Name)))
	}
	return errs, warnings
}

// CheckStructure applies the snippet-wide rules: no bulk mutation, no loops,
// justified globals, guards not used for branching.
func (d Dialect) CheckStructure(calls Calls) (errs, warnings []string) {
	hasMutation := false
	for _, m := range d.Mutations {
		if calls.Has(m) {
			hasMutation = true
			break
		}
	}
	if calls.Has(d.ListAll) && hasMutation {
		errs = append(errs, MsgBulkMutation)
	}

	for _, loop := range d.Loops {
		if calls.Has(loop) {
			errs = append(errs, LoopMessage(d.Display(loop)))
		}
	}

	for _, g := range d.GlobalAccessors {
		if calls.Has(g) {
			warnings = append(warnings, MsgGlobalVars)
			break
		}
	}

	hasGuard := false
	for _, call := range calls {
		if call.Is(d.Guard) && !call.Malformed {
			hasGuard = true
			break
		}
	}
	if hasGuard && calls.Has(d.Else) {
		warnings = append(warnings, MsgGuardBranches)
	}

	return errs, warnings
}

// Report is the combined outcome of every pure check.
type Report struct {
	Calls Calls
	Flow  FlowReport

	// Errors are ordered flow, guard, logic, syntax, structure.
	Errors   []string
	Warnings []string

	// Functions are the distinct non-flow names, in first-appearance order.
	Functions []string
}

// Analyze parses snippet and runs every check that needs no collaborator.
func (d Dialect) Analyze(snippet string) *Report {
	calls := d.Parse(snippet)
	flow := d.CheckFlow(calls)
	syntaxErrs, syntaxWarnings := d.CheckSyntax(calls)
	structErrs, structWarnings := d.CheckStructure(calls)

	r := &Report{
		Calls:     calls,
		Flow:      flow,
		Functions: d.Functions(calls),
	}
	r.Errors = append(r.Errors, flow.Errors...)
	r.Errors = append(r.Errors, d.CheckGuards(calls)...)
	r.Errors = append(r.Errors, d.CheckLogic(calls)...)
	r.Errors = append(r.Errors, syntaxErrs...)
	r.Errors = append(r.Errors, structErrs...)
	r.Warnings = append(r.Warnings, structWarnings...)
	r.Warnings = append(r.Warnings, syntaxWarnings...)
	return r
}

// OnlyUnclosedIfs reports whether the sole problem is $if openings that were
// never closed.
func (r *Report) OnlyUnclosedIfs() bool {
	return len(r.Errors) == 1 &&
		r.Errors[0] == MsgMismatchedIf &&
		r.Flow.Ifs > r.Flow.EndIfs
}
