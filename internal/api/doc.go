// Package api is the typed client for the records service, used by the CLI
// and the terminal UI. It can point at the upstream directly or at a relay
// (base URL ending in the relay prefix); the request shapes are the same.
//
// Students travel as JSON. Scholarships are created with a multipart form
// carrying every text field and an optional "pdfLink" file part, and
// updated with JSON in which criteria and documents are arrays.
//
// Non-2xx answers become *StatusError values carrying the status and the
// service's "message" when it sent one.
package api
