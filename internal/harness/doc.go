// Package harness runs decision table scenarios as executable contract
// tests.
//
// A scenario seeds state locators, runs a sequence of session operations
// against a specs directory, and validates the resulting episodes, trace
// and persisted state.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: shipping_flow
//	description: "What this scenario validates"
//	specs: ../specs
//	locators:
//	  order: { weight: "12" }
//	steps:
//	  - decide: shipping
//	    expect: { carrier: truck }
//	  - perform: ship
//	    expect: { applied: "true" }
//	  - set: order::weight
//	    value: "10.5"
//	  - decide: shipping
//	    expect_error: MULTIPLE_RULES
//	  - decide: shipping
//	    request:
//	      order: { weight: "2" }
//	    expect: { carrier: van }
//	  - reset: order
//	assertions:
//	  - type: trace_contains
//	    kind: rule
//	    message: "heavy: satisfied"
//	  - type: final_state
//	    locator: order
//	    expect: { status: shipped }
//
// # Assertion Types
//
//   - trace_contains: a trace entry has the message (and kind, if given)
//   - trace_order: the messages appear in the given order
//   - trace_count: matching entries appear exactly count times
//   - final_state: a persisted locator holds the expected fields
//
// # Deterministic Testing
//
// Every scenario runs in its own in-memory SQLite store with sequential
// episode IDs ("<episode_prefix>-0001", ...) and the session's logical
// clock, so a scenario produces the same episodes and trace on every run.
// That snapshot is compared against golden/<name>.golden next to the
// scenario file.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/shipping_flow.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
