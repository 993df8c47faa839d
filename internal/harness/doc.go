// Package harness runs directory conformance scenarios.
//
// A scenario compiles a set of CUE specs, registers descriptions with a
// fresh in-memory directory, runs searches and checks the public keys each
// search returns.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: sixties_books
//	description: "Range queries find books from the sixties"
//	specs:
//	  - specs/books.cue
//	register:
//	  - kind: service
//	    key: shop-a
//	    description: dune
//	unregister:
//	  - kind: service
//	    key: shop-b
//	searches:
//	  - kind: service
//	    query: sixties
//	    expect: [shop-a]
//	registered:
//	  services: 1
//
// Descriptions and queries are referred to by their spec names. Spec paths
// are relative to the scenario file.
//
// # Deterministic Testing
//
// All scenarios execute with a deterministic logical clock
// (testutil.DeterministicClock) and sequential search ids
// (testutil.SequentialIDGenerator) against an in-memory SQLite store, so
// the trace of a run is identical across runs and can be compared to a
// golden file.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/books.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, err := range result.Errors {
//	        log.Println(err)
//	    }
//	}
package harness
