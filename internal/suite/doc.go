// Package suite holds the end-to-end tests that drive a live instance of the application
// under test. They are excluded from the default build; run them with
//
//	go test -tags e2e ./internal/suite/...
//
// and point app.base_url (or BASE_URL) at the running application.
package suite
