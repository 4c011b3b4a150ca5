package report

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/flowspec/packages/session"
)

// JUnit XML structures

// JUnitTestSuites is the root element
type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	Name       string           `xml:"name,attr,omitempty"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	Skipped    int              `xml:"skipped,attr"`
	Time       float64          `xml:"time,attr"`
	Timestamp  string           `xml:"timestamp,attr,omitempty"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

// JUnitTestSuite groups the iterations of one test definition
type JUnitTestSuite struct {
	XMLName   xml.Name        `xml:"testsuite"`
	Name      string          `xml:"name,attr"`
	Tests     int             `xml:"tests,attr"`
	Failures  int             `xml:"failures,attr"`
	Skipped   int             `xml:"skipped,attr"`
	Time      float64         `xml:"time,attr"`
	TestCases []JUnitTestCase `xml:"testcase"`
}

// JUnitTestCase is one iteration
type JUnitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
	Skipped   *JUnitSkipped `xml:"skipped,omitempty"`
}

// JUnitFailure carries the collected stage failure lines
type JUnitFailure struct {
	Message string `xml:"message,attr,omitempty"`
	Type    string `xml:"type,attr,omitempty"`
	Content string `xml:",chardata"`
}

// JUnitSkipped marks a skipped iteration
type JUnitSkipped struct {
	Message string `xml:"message,attr,omitempty"`
}

// JUnitReporter renders a session as JUnit XML: one suite per test
// definition, one case per iteration.
type JUnitReporter struct {
	redact *Redactor
}

func NewJUnitReporter(secrets []string) *JUnitReporter {
	return &JUnitReporter{redact: NewRedactor(secrets)}
}

func (r *JUnitReporter) Write(w io.Writer, agg *session.Aggregator) error {
	suites := r.build(agg)
	fmt.Fprintf(w, "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")
	return encoder.Encode(suites)
}

func (r *JUnitReporter) build(agg *session.Aggregator) JUnitTestSuites {
	byTest := make(map[string]*JUnitTestSuite)
	var order []string

	for _, o := range agg.Outcomes() {
		suite, ok := byTest[o.TestID]
		if !ok {
			suite = &JUnitTestSuite{Name: o.TestName}
			byTest[o.TestID] = suite
			order = append(order, o.TestID)
		}

		tc := JUnitTestCase{
			Name:      fmt.Sprintf("iteration %d", o.Iteration),
			ClassName: o.TestName,
			Time:      o.Duration.Seconds(),
		}

		switch o.Status {
		case session.StatusSkipped:
			tc.Skipped = &JUnitSkipped{Message: r.redact.Line(o.Detail)}
			suite.Skipped++
		case session.StatusFailed:
			tc.Failure = &JUnitFailure{
				Message: "validation failed",
				Type:    "ValidationError",
				Content: r.failureContent(o),
			}
			suite.Failures++
		}

		suite.Tests++
		suite.Time += o.Duration.Seconds()
		suite.TestCases = append(suite.TestCases, tc)
	}

	root := JUnitTestSuites{
		Name:      "flowspec",
		Timestamp: time.Now().Format(time.RFC3339),
	}
	totals := agg.Totals()
	root.Tests = totals.Passed + totals.Failed + totals.Skipped
	root.Failures = totals.Failed
	root.Skipped = totals.Skipped
	root.Time = totals.Duration.Seconds()

	for _, id := range order {
		root.TestSuites = append(root.TestSuites, *byTest[id])
	}
	return root
}

func (r *JUnitReporter) failureContent(o session.Outcome) string {
	var b strings.Builder
	if o.Detail != "" {
		fmt.Fprintf(&b, "%s\n", r.redact.Line(o.Detail))
	}
	for _, st := range o.Stages {
		for _, f := range st.Failures {
			fmt.Fprintf(&b, "%s %s\n", stageLabel(st), r.redact.Line(f.Error()))
		}
	}
	return b.String()
}
