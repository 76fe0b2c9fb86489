// Package notifier sends best-effort alert mail for security-relevant
// alarm activations. A mailer without host or recipient settings is
// disabled and every Send reports it as such.
package notifier
