package uitest

import (
	"fmt"
	"sync"

	"github.com/stretchr/testify/assert"
)

// Asserter is the assertion facility owned by the calling test framework.
type Asserter interface {
	// Equal reports whether actual equals expected, failing with message otherwise.
	Equal(actual, expected any, message string) bool
	// OK reports condition, failing with message when it is false.
	OK(condition bool, message string) bool
}

// TestifyAsserter reports through testify, so failures land on the test
// that owns T.
type TestifyAsserter struct {
	T assert.TestingT
}

var _ Asserter = TestifyAsserter{}

// NewTestifyAsserter adapts t.
func NewTestifyAsserter(t assert.TestingT) TestifyAsserter {
	return TestifyAsserter{T: t}
}

func (a TestifyAsserter) Equal(actual, expected any, message string) bool {
	if h, ok := a.T.(interface{ Helper() }); ok {
		h.Helper()
	}
	return assert.Equal(a.T, expected, actual, message)
}

func (a TestifyAsserter) OK(condition bool, message string) bool {
	if h, ok := a.T.(interface{ Helper() }); ok {
		h.Helper()
	}
	return assert.True(a.T, condition, message)
}

// Kind of a recorded assertion.
type Kind string

const (
	KindEqual Kind = "equal"
	KindOK    Kind = "ok"
)

// Result is one recorded assertion.
type Result struct {
	Kind     Kind
	Passed   bool
	Message  string
	Actual   any
	Expected any
}

// Recorder is an Asserter that keeps every call instead of failing a test.
type Recorder struct {
	mu      sync.Mutex
	results []Result
}

var _ Asserter = (*Recorder)(nil)

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Equal(actual, expected any, message string) bool {
	passed := assert.ObjectsAreEqual(expected, actual)
	r.add(Result{Kind: KindEqual, Passed: passed, Message: message, Actual: actual, Expected: expected})
	return passed
}

func (r *Recorder) OK(condition bool, message string) bool {
	r.add(Result{Kind: KindOK, Passed: condition, Message: message, Actual: condition, Expected: true})
	return condition
}

func (r *Recorder) add(res Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

// Results returns a copy of every recorded assertion, oldest first.
func (r *Recorder) Results() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Result(nil), r.results...)
}

// Last returns the most recent assertion.
func (r *Recorder) Last() (Result, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.results) == 0 {
		return Result{}, false
	}
	return r.results[len(r.results)-1], true
}

// Failures returns the assertions that did not pass.
func (r *Recorder) Failures() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	var failed []Result
	for _, res := range r.results {
		if !res.Passed {
			failed = append(failed, res)
		}
	}
	return failed
}

// Reset forgets every recorded assertion.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = nil
}

func (r Result) String() string {
	status := "PASS"
	if !r.Passed {
		status = "FAIL"
	}
	if r.Kind == KindEqual {
		return fmt.Sprintf("%s %s: %s (actual=%#v expected=%#v)", status, r.Kind, r.Message, r.Actual, r.Expected)
	}
	return fmt.Sprintf("%s %s: %s", status, r.Kind, r.Message)
}
