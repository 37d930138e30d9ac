// Package backend implements the misauth.Backend boundary over the
// console's REST API: one login endpoint per principal surface, a
// current-principal endpoint, and logout.
package backend
