// Package model defines the student and scholarship records exchanged with
// the records service, the editable form shapes behind them, and the
// presence and numeric checks applied before anything is sent.
//
// Records travel as JSON. Forms hold raw text as typed by an operator; a
// ScholarshipForm keeps eligibility criteria as "name: value" lines and
// required documents as one document per line, and Parse turns it into a
// Scholarship.
//
// Validation failures are returned as a multierror of *FieldError values,
// one per offending field, so callers can report every problem at once.
package model
