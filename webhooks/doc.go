// Package webhooks contains provider-agnostic webhook verification components.
//
// Verifiers never decide the HTTP response. Callers treat a verification
// failure as "do not dispatch" so providers still receive their acknowledgment.
package webhooks
