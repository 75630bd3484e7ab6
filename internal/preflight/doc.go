// Package preflight provides readiness checks for the external tools and
// filesystem paths castcut depends on.
//
// These checks run in two contexts:
//   - Every run calls RunAll before staging sources. If a required check
//     fails the run stops before any ffmpeg work is started.
//   - The CLI "castcut doctor" command shows every check, including the
//     optional tools, as a table.
package preflight
