// Package directory provides read-only access to users and goals owned by
// the surrounding application. Reminders consult it for ownership checks,
// recipient addresses and live notification preferences.
package directory
