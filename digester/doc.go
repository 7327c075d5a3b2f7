// Package digester computes Subresource Integrity values for files. A value has
// the "<algorithm>-<base64>" form used by the integrity attribute of script and
// link elements, and VerifyIntegrity checks a file against such a value.
package digester
